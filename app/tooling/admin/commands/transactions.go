package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// Transactions prints every stored transaction, or only the ones sent or
// received by the specified account.
func Transactions(ctx context.Context, w io.Writer, l *ledger.Ledger, account string) error {
	filter := db.Filter{
		AccountNumber: account,
		Ordering:      "block__created_date",
		Limit:         models.MaxLimit,
	}

	for {
		recs, count, err := l.QueryTransactions(ctx, filter)
		if err != nil {
			return err
		}

		for _, tx := range recs {
			fmt.Fprintf(w, "ID: %s  Block: %s  From: %s  To: %s  Amount: %d  Fee: %s  Memo: %s\n",
				tx.ID, tx.Block.ID, tx.Block.Sender, tx.Recipient, tx.Amount, tx.Fee, tx.Memo)
		}

		filter.Offset += len(recs)
		if len(recs) == 0 || uint64(filter.Offset) >= count {
			return nil
		}
	}
}
