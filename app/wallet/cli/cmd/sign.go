package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/spf13/cobra"
)

// ErrInvalidSignature is returned by verify when the signature doesn't
// match the message.
var ErrInvalidSignature = errors.New("signature is invalid")

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the wallet's signing key",
	Args:  cobra.ExactArgs(1),
	RunE:  signRun,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <message> <signature> [account-number]",
	Short: "Verify the signature of a message",
	Long: `Verify the signature of a message. The account number of the wallet
is used when none is provided.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: verifyRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

func signRun(cmd *cobra.Command, args []string) error {
	acc, err := loadAccount()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), acc.CreateSignature(args[0]))
	return nil
}

func verifyRun(cmd *cobra.Command, args []string) error {
	var accountNumber string
	switch len(args) {
	case 3:
		accountNumber = args[2]

	default:
		n, err := walletAccountNumber()
		if err != nil {
			return err
		}
		accountNumber = n
	}

	if !account.VerifySignature(args[1], args[0], accountNumber) {
		return ErrInvalidSignature
	}

	fmt.Fprintln(cmd.OutOrStdout(), "signature is valid")
	return nil
}
