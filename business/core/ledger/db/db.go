// Package db stores the blocks and transactions accepted by the node in
// sqlite.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrInvalidOrdering is returned when a query orders by an unknown field.
var ErrInvalidOrdering = errors.New("invalid ordering field")

// orderings maps the fields clients can order by to their columns.
var orderings = map[string]string{
	"amount":               "t.amount",
	"recipient":            "t.recipient",
	"fee":                  "t.fee",
	"memo":                 "t.memo",
	"id":                   "t.id",
	"block__created_date":  "b.seq",
	"block__sender":        "b.sender",
	"block__balance_key":   "b.balance_key",
	"block__modified_date": "b.modified_date",
}

// Store manages the set of APIs for block and transaction access.
type Store struct {
	db *sql.DB
}

// Open opens the sqlite database at the path, creating it and its schema
// when they don't exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StatusCheck returns nil if it can successfully talk to the database.
func (s *Store) StatusCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveBlock writes the block and its transactions in a single database
// transaction.
func (s *Store) SaveBlock(ctx context.Context, blk Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const qb = `
	INSERT INTO blocks (id, created_date, modified_date, balance_key, sender, signature)
	VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, qb, blk.ID, formatTime(blk.CreatedDate), formatTime(blk.ModifiedDate), blk.BalanceKey, blk.Sender, blk.Signature); err != nil {
		return fmt.Errorf("inserting block %s: %w", blk.ID, err)
	}

	const qt = `
	INSERT INTO transactions (id, block_id, position, amount, recipient, fee, memo)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	for i, t := range blk.Txs {
		if _, err := tx.ExecContext(ctx, qt, t.ID, blk.ID, i, int64(t.Amount), t.Recipient, t.Fee, t.Memo); err != nil {
			return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Blocks returns every stored block with its transactions in the order they
// were accepted.
func (s *Store) Blocks(ctx context.Context) ([]Block, error) {
	const q = `
	SELECT id, created_date, modified_date, balance_key, sender, signature
	FROM blocks
	ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	index := make(map[string]int)
	for rows.Next() {
		blk, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		index[blk.ID] = len(blocks)
		blocks = append(blocks, blk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qt = `
	SELECT id, block_id, amount, recipient, fee, memo
	FROM transactions
	ORDER BY block_id, position`

	trows, err := s.db.QueryContext(ctx, qt)
	if err != nil {
		return nil, fmt.Errorf("selecting transactions: %w", err)
	}
	defer trows.Close()

	for trows.Next() {
		var t Transaction
		var amount int64
		if err := trows.Scan(&t.ID, &t.BlockID, &amount, &t.Recipient, &t.Fee, &t.Memo); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Amount = uint64(amount)

		i, exists := index[t.BlockID]
		if !exists {
			return nil, fmt.Errorf("transaction %s references unknown block %s", t.ID, t.BlockID)
		}
		blocks[i].Txs = append(blocks[i].Txs, t)
	}

	return blocks, trows.Err()
}

// QueryTransactions returns one page of transactions matching the filter
// along with the total number of matches.
func (s *Store) QueryTransactions(ctx context.Context, filter Filter) ([]TransactionRecord, uint64, error) {
	where, args := filter.where()

	order := "b.seq DESC, t.position"
	if filter.Ordering != "" {
		field := strings.TrimPrefix(filter.Ordering, "-")
		col, exists := orderings[field]
		if !exists {
			return nil, 0, fmt.Errorf("%s: %w", field, ErrInvalidOrdering)
		}

		dir := "ASC"
		if strings.HasPrefix(filter.Ordering, "-") {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s, b.seq, t.position", col, dir)
	}

	const from = `
	FROM transactions t
	JOIN blocks b ON b.id = t.block_id`

	var count uint64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from+where, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("counting transactions: %w", err)
	}

	q := `
	SELECT t.id, t.block_id, t.amount, t.recipient, t.fee, t.memo,
	       b.id, b.created_date, b.modified_date, b.balance_key, b.sender, b.signature` +
		from + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, q, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("selecting transactions: %w", err)
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var r TransactionRecord
		var amount int64
		var created, modified string
		err := rows.Scan(&r.ID, &r.BlockID, &amount, &r.Recipient, &r.Fee, &r.Memo,
			&r.Block.ID, &created, &modified, &r.Block.BalanceKey, &r.Block.Sender, &r.Block.Signature)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning transaction: %w", err)
		}

		r.Amount = uint64(amount)
		if r.Block.CreatedDate, err = parseTime(created); err != nil {
			return nil, 0, err
		}
		if r.Block.ModifiedDate, err = parseTime(modified); err != nil {
			return nil, 0, err
		}

		records = append(records, r)
	}

	return records, count, rows.Err()
}

// SaveTrust stores the trust of the account.
func (s *Store) SaveTrust(ctx context.Context, accountNumber string, trust int32) error {
	const q = `
	INSERT INTO trust (account_number, trust) VALUES (?, ?)
	ON CONFLICT(account_number) DO UPDATE SET trust = excluded.trust`

	if _, err := s.db.ExecContext(ctx, q, accountNumber, trust); err != nil {
		return fmt.Errorf("saving trust for %s: %w", accountNumber, err)
	}

	return nil
}

// Trusts returns the stored trust for every account.
func (s *Store) Trusts(ctx context.Context) (map[string]int32, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT account_number, trust FROM trust")
	if err != nil {
		return nil, fmt.Errorf("selecting trust: %w", err)
	}
	defer rows.Close()

	trusts := make(map[string]int32)
	for rows.Next() {
		var accountNumber string
		var trust int32
		if err := rows.Scan(&accountNumber, &trust); err != nil {
			return nil, fmt.Errorf("scanning trust: %w", err)
		}
		trusts[accountNumber] = trust
	}

	return trusts, rows.Err()
}

// =============================================================================

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, values ...any) {
		conds = append(conds, cond)
		args = append(args, values...)
	}

	if f.AccountNumber != "" {
		add("(b.sender = ? OR t.recipient = ?)", f.AccountNumber, f.AccountNumber)
	}
	if f.Sender != "" {
		add("b.sender = ?", f.Sender)
	}
	if f.Recipient != "" {
		add("t.recipient = ?", f.Recipient)
	}
	if f.BalanceKey != "" {
		add("b.balance_key = ?", f.BalanceKey)
	}
	if f.ID != "" {
		add("t.id = ?", f.ID)
	}

	switch f.Fee {
	case "":
	case "NONE":
		add("t.fee = ''")
	default:
		add("t.fee = ?", f.Fee)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(row scanner) (Block, error) {
	var blk Block
	var created, modified string
	if err := row.Scan(&blk.ID, &created, &modified, &blk.BalanceKey, &blk.Sender, &blk.Signature); err != nil {
		return Block{}, fmt.Errorf("scanning block: %w", err)
	}

	var err error
	if blk.CreatedDate, err = parseTime(created); err != nil {
		return Block{}, err
	}
	if blk.ModifiedDate, err = parseTime(modified); err != nil {
		return Block{}, err
	}

	return blk, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
