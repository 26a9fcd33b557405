package models

import (
	"net/url"
	"strconv"
)

// Transaction represents a single transfer of coins inside a block.
type Transaction struct {
	Amount    uint64   `json:"amount"`
	Fee       NodeType `json:"fee,omitempty"`
	Memo      string   `json:"memo,omitempty"`
	Recipient string   `json:"recipient"`
}

// NewTransaction constructs a transaction with only a recipient and
// an amount.
func NewTransaction(recipient string, amount uint64) Transaction {
	return Transaction{
		Amount:    amount,
		Recipient: recipient,
	}
}

// NewTransactionWithMemo constructs a transaction that carries a message
// for the recipient.
func NewTransactionWithMemo(recipient string, amount uint64, memo string) Transaction {
	return Transaction{
		Amount:    amount,
		Memo:      memo,
		Recipient: recipient,
	}
}

// IsFee reports if this transaction pays a node for processing the block.
func (tx Transaction) IsFee() bool {
	return tx.Fee.IsFee()
}

// =============================================================================

// Limits applied to paginated queries.
const (
	MinLimit = 1
	MaxLimit = 100
)

// TransactionQuery builds the search params for the bank transactions
// endpoint.
//
//	account_number  transactions sent or received by the account
//	recipient       transactions received by the account
//	sender          transactions sent by the account
//	fee             bank fees, primary validator fees or NONE
//	balance_key     transaction in the block with this balance key
//	id              transaction with this id
//	ordering        one of the above fields, prefix with - for descending
//	limit, offset   pagination
type TransactionQuery struct {
	params url.Values
}

// NewTransactionQuery constructs an empty query.
func NewTransactionQuery() *TransactionQuery {
	return &TransactionQuery{
		params: make(url.Values),
	}
}

// AccountNumber searches for transactions sent or received by the account.
func (q *TransactionQuery) AccountNumber(accountNumber string) *TransactionQuery {
	return q.set("account_number", accountNumber)
}

// Recipient searches for transactions received by the account.
func (q *TransactionQuery) Recipient(accountNumber string) *TransactionQuery {
	return q.set("recipient", accountNumber)
}

// Sender searches for transactions sent by the account.
func (q *TransactionQuery) Sender(accountNumber string) *TransactionQuery {
	return q.set("sender", accountNumber)
}

// BalanceKey searches for transactions with the specified balance key.
func (q *TransactionQuery) BalanceKey(balanceKey string) *TransactionQuery {
	return q.set("balance_key", balanceKey)
}

// Fee searches for bank fees, primary validator fees or transactions with
// no fees when None is provided. An empty node type stores an empty value.
func (q *TransactionQuery) Fee(nodeType NodeType) *TransactionQuery {
	return q.set("fee", nodeType.String())
}

// ID searches for the transaction with the specified id.
func (q *TransactionQuery) ID(id string) *TransactionQuery {
	return q.set("id", id)
}

// Ordering orders the transactions by the specified field.
func (q *TransactionQuery) Ordering(field string) *TransactionQuery {
	return q.set("ordering", field)
}

// Limit sets the max number of items to retrieve, clamped between
// MinLimit and MaxLimit.
func (q *TransactionQuery) Limit(value int) *TransactionQuery {
	switch {
	case value < MinLimit:
		value = MinLimit
	case value > MaxLimit:
		value = MaxLimit
	}

	return q.set("limit", strconv.Itoa(value))
}

// Offset sets the number of items to skip from the start of the data.
func (q *TransactionQuery) Offset(value uint) *TransactionQuery {
	return q.set("offset", strconv.FormatUint(uint64(value), 10))
}

// Params returns a copy of the search params.
func (q *TransactionQuery) Params() url.Values {
	cpy := make(url.Values, len(q.params))
	for k, v := range q.params {
		cpy[k] = append([]string(nil), v...)
	}
	return cpy
}

// Clear removes all the search params.
func (q *TransactionQuery) Clear() {
	q.params = make(url.Values)
}

func (q *TransactionQuery) set(key string, value string) *TransactionQuery {
	if q.params == nil {
		q.params = make(url.Values)
	}
	q.params.Set(key, value)
	return q
}
