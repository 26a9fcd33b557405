package cmd

import (
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/spf13/cobra"
)

var (
	target string
	trust  int32
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Update the trust the bank gives an account",
	Long: `Update the trust the bank gives an account. The request is signed
with the wallet's key, which must be the bank's node identifier.`,
	RunE: trustRun,
}

func init() {
	rootCmd.AddCommand(trustCmd)
	trustCmd.Flags().StringVar(&target, "target", "", "Account number or key file name to update.")
	trustCmd.Flags().Int32Var(&trust, "trust", 0, "Trust given to the account, between 0 and 100.")
	trustCmd.MarkFlagRequired("target")
}

func trustRun(cmd *cobra.Command, args []string) error {
	nid, err := loadAccount()
	if err != nil {
		return err
	}

	accountNumber, err := resolveAccount(target)
	if err != nil {
		return err
	}

	node, err := nodes.NewRegularNode(v.GetString(keyURL))
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	if err := node.UpdateAccountTrust(ctx, accountNumber, trust, nid); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "trust of %s set to %d\n", accountNumber, trust)
	return nil
}
