package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "TNB"
	configDirName  = ".tnb"
	configFileName = "config"
	configFileType = "yaml"
)

// loadConfig resolves the settings of the wallet. Flags win over the
// environment, which wins over the config file. A missing config file is
// not an error.
func loadConfig(path string, root *cobra.Command) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	if err := cfg.BindPFlags(root.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	switch path {
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		cfg.SetConfigName(configFileName)
		cfg.SetConfigType(configFileType)
		cfg.AddConfigPath(filepath.Join(home, configDirName))

	default:
		cfg.SetConfigFile(path)
	}

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return cfg, nil
}
