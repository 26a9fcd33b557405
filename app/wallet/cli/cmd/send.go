package cmd

import (
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount uint64
	memo   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send coins to an account",
	Long: `Send coins to an account. The bank and primary validator fees are
added to the block before it's signed.`,
	RunE: sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account number or key file name of the recipient.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount of coins to send.")
	sendCmd.Flags().StringVarP(&memo, "memo", "m", "", "Memo attached to the transaction.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	acc, err := loadAccount()
	if err != nil {
		return err
	}

	recipient, err := resolveAccount(to)
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

	blk, err := w.SendTransaction(ctx, models.NewTransactionWithMemo(recipient, amount, memo))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "block:", blk.ID)
	fmt.Fprintln(out, "balance key:", blk.BalanceKey)

	return nil
}
