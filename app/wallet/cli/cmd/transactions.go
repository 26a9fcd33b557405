package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardanlabs/tnb/foundation/nameservice"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/spf13/cobra"
)

var (
	limit     int
	offset    uint
	sender    string
	recipient string
	pages     int
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Search the transactions stored by the bank",
	Long: `Search the transactions stored by the bank. By default the
transactions sent or received by the wallet are listed.`,
	RunE: transactionsRun,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	f := transactionsCmd.Flags()
	f.IntVarP(&limit, "limit", "l", 10, "Number of transactions per page.")
	f.UintVarP(&offset, "offset", "o", 0, "Number of transactions to skip.")
	f.StringVar(&sender, "sender", "", "Only list the transactions sent by this account or key file name.")
	f.StringVar(&recipient, "recipient", "", "Only list the transactions received by this account or key file name.")
	f.IntVar(&pages, "pages", 1, "Number of pages to follow.")
}

func transactionsRun(cmd *cobra.Command, args []string) error {
	query := models.NewTransactionQuery().Limit(limit).Offset(offset)

	switch {
	case sender == "" && recipient == "":
		n, err := walletAccountNumber()
		if err != nil {
			return err
		}
		query.AccountNumber(n)

	default:
		if sender != "" {
			n, err := resolveAccount(sender)
			if err != nil {
				return err
			}
			query.Sender(n)
		}
		if recipient != "" {
			n, err := resolveAccount(recipient)
			if err != nil {
				return err
			}
			query.Recipient(n)
		}
	}

	ns, err := nameservice.New(keyStore())
	if err != nil {
		return err
	}

	node, err := nodes.NewRegularNode(v.GetString(keyURL))
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	resp, err := node.Transactions(ctx, query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "count: %d\n", resp.Count)

	for page := 1; ; page++ {
		printTransactions(out, ns, resp.Results)

		if page >= pages {
			break
		}

		resp, err = resp.NextPage(ctx, node.Server)
		if err != nil {
			if errors.Is(err, nodes.ErrNoNextPage) {
				break
			}
			return err
		}
	}

	return nil
}

func printTransactions(out io.Writer, ns *nameservice.NameService, txs []nodes.TransactionResponse) {
	for _, tx := range txs {
		fee := ""
		if tx.Fee != "" && tx.Fee != models.None {
			fee = "fee:" + tx.Fee.String()
		}

		fmt.Fprintf(out, "%s %s -> %s %d %s %s\n",
			tx.ID,
			ns.Lookup(tx.Block.Sender),
			ns.Lookup(tx.Recipient),
			tx.Amount,
			fee,
			tx.Memo,
		)
	}
}
