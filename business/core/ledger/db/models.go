package db

import "time"

// Block is a coin transfer accepted by the node.
type Block struct {
	ID           string
	CreatedDate  time.Time
	ModifiedDate time.Time
	BalanceKey   string
	Sender       string
	Signature    string
	Txs          []Transaction
}

// Transaction is a single transfer stored as part of a block.
type Transaction struct {
	ID        string
	BlockID   string
	Amount    uint64
	Recipient string
	Fee       string
	Memo      string
}

// TransactionRecord is a transaction with the block it belongs to.
type TransactionRecord struct {
	Transaction
	Block Block
}

// Filter narrows down a transaction query. Empty fields are ignored. Fee
// accepts a node type or NONE for transactions without a fee.
type Filter struct {
	AccountNumber string
	Sender        string
	Recipient     string
	Fee           string
	BalanceKey    string
	ID            string
	Ordering      string
	Limit         int
	Offset        int
}
