package cmd

import (
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/wallet"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	acc, err := loadAccount()
	if err != nil {
		return err
	}

	w, err := wallet.New(acc, v.GetString(keyURL))
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	if err := w.Init(ctx); err != nil {
		return err
	}

	balance, ok, err := w.Balance(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "For Account:", acc.AccountNumber())
	if !ok {
		fmt.Fprintln(out, "account not found on the network")
		return nil
	}
	fmt.Fprintln(out, balance)

	return nil
}
