// This program performs administrative tasks against the store of a
// development node. The node should be stopped while it runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/tnb/app/tooling/admin/commands"
	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/core/ledger/genesis"
	"github.com/ardanlabs/tnb/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
			DBPath      string `conf:"default:zblock/blocks.db"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "administration of a development node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return err
	}

	store, err := db.Open(cfg.State.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	l, err := ledger.New(ctx, ledger.Config{
		Genesis: gen,
		Storer:  store,
	})
	if err != nil {
		return err
	}

	return processCommands(ctx, cfg.Args, l)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(ctx context.Context, args conf.Args, l *ledger.Ledger) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, l, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(ctx, os.Stdout, l, args.Num(1)); err != nil {
			return fmt.Errorf("getting transactions: %w", err)
		}
	default:
		fmt.Println("bals [account]: print the balance sheet")
		fmt.Println("trans [account]: print the stored transactions")
		fmt.Println("provide a command to get more help.")
	}

	return nil
}
