package cmd

import (
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/hdwallet"
	"github.com/spf13/cobra"
)

var mnemonic bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new account and save it encrypted",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&mnemonic, "mnemonic", "m", false, "Generate an hd wallet backed by a mnemonic.")
}

func generateRun(cmd *cobra.Command, args []string) error {
	ks := keyStore()
	name := v.GetString(keyAccount)
	pass := v.GetString(keyPassphrase)

	if !mnemonic {
		acc, err := account.New()
		if err != nil {
			return err
		}

		if err := ks.SaveAccount(name, acc, pass); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), acc.AccountNumber())
		return nil
	}

	w, err := hdwallet.New()
	if err != nil {
		return err
	}

	if err := ks.SaveWallet(name, w, pass); err != nil {
		return err
	}

	acc, err := w.Account(v.GetUint32(keyAccountIndex), v.GetUint32(keyAddressIndex))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, acc.AccountNumber())
	fmt.Fprintln(out, "mnemonic:", w.Mnemonic())

	return nil
}
