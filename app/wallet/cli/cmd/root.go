// Package cmd contains the wallet app commands.
package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/tnb/foundation/keystore"
	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set of configuration keys shared by the flags, the environment and the
// config file.
const (
	keyAccount      = "account"
	keyAccountPath  = "account-path"
	keyURL          = "url"
	keyPassphrase   = "passphrase"
	keyAccountIndex = "account-index"
	keyAddressIndex = "address-index"
	keyLight        = "light"
	keyTimeout      = "timeout"
)

var (
	configFile string
	v          *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet for thenewboston network",
	Long: `Wallet manages encrypted accounts and talks to a bank of thenewboston
network to send coins, check balances and search transactions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		v, err = loadConfig(configFile, cmd.Root())
		return err
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default $HOME/.tnb/config.yaml).")
	pf.StringP(keyAccount, "a", "wallet", "Name of the key file.")
	pf.StringP(keyAccountPath, "p", "zblock/accounts/", "Path to the directory with the key files.")
	pf.StringP(keyURL, "u", "http://localhost:8080", "Url of the bank.")
	pf.String(keyPassphrase, "", "Passphrase of the key file.")
	pf.Uint32(keyAccountIndex, 0, "Account index used to derive keys from a mnemonic.")
	pf.Uint32(keyAddressIndex, 0, "Address index used to derive keys from a mnemonic.")
	pf.Bool(keyLight, false, "Use the light scrypt parameters to encrypt new key files.")
	pf.Duration(keyTimeout, 10*time.Second, "Timeout of the requests made to the network.")
}

// Execute runs the wallet app.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================

func keyStore() *keystore.Store {
	return keystore.New(v.GetString(keyAccountPath), v.GetBool(keyLight))
}

func loadAccount() (account.Account, error) {
	secret, err := keyStore().Load(v.GetString(keyAccount), v.GetString(keyPassphrase))
	if err != nil {
		return account.Account{}, fmt.Errorf("loading %q: %w", v.GetString(keyAccount), err)
	}

	return secret.Account(v.GetUint32(keyAccountIndex), v.GetUint32(keyAddressIndex))
}

// walletAccountNumber returns the account number of the address selected by
// the index flags. The key file only needs unlocking for a derived address.
func walletAccountNumber() (string, error) {
	if v.GetUint32(keyAccountIndex) == 0 && v.GetUint32(keyAddressIndex) == 0 {
		return keyStore().AccountNumber(v.GetString(keyAccount))
	}

	acc, err := loadAccount()
	if err != nil {
		return "", err
	}

	return acc.AccountNumber(), nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, v.GetDuration(keyTimeout))
}

// resolveAccount accepts an account number or the name of a key file.
func resolveAccount(s string) (string, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == 32 {
		return hex.EncodeToString(b), nil
	}

	return keyStore().AccountNumber(s)
}
