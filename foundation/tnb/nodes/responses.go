package nodes

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// Set of errors returned when paging through data.
var (
	ErrNoNextPage = errors.New("next link is empty")
	ErrNoPrevPage = errors.New("prev link is empty")
)

// BlockResponse is the block data returned by a node.
type BlockResponse struct {
	ID           string `json:"id"`
	CreatedDate  string `json:"created_date"`
	ModifiedDate string `json:"modified_date"`
	BalanceKey   string `json:"balance_key"`
	Sender       string `json:"sender"`
	Signature    string `json:"signature"`
}

// TransactionResponse is a transaction stored by a node, usually returned
// as part of a paginated response.
type TransactionResponse struct {
	ID        string          `json:"id"`
	Block     BlockResponse   `json:"block"`
	Amount    uint64          `json:"amount"`
	Recipient string          `json:"recipient"`
	Fee       models.NodeType `json:"fee,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

// PaginatedResponse wraps paginated data requested from a node.
type PaginatedResponse[T any] struct {
	Count    uint64  `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NextPage retrieves the next set of paginated data using the server's
// http client.
func (p PaginatedResponse[T]) NextPage(ctx context.Context, s *Server) (PaginatedResponse[T], error) {
	return p.page(ctx, s, p.Next, ErrNoNextPage)
}

// PrevPage retrieves the previous set of paginated data using the server's
// http client.
func (p PaginatedResponse[T]) PrevPage(ctx context.Context, s *Server) (PaginatedResponse[T], error) {
	return p.page(ctx, s, p.Previous, ErrNoPrevPage)
}

func (p PaginatedResponse[T]) page(ctx context.Context, s *Server, link *string, empty error) (PaginatedResponse[T], error) {
	if link == nil || *link == "" {
		return PaginatedResponse[T]{}, empty
	}

	var resp PaginatedResponse[T]
	if err := s.do(ctx, http.MethodGet, *link, nil, &resp); err != nil {
		return PaginatedResponse[T]{}, err
	}

	return resp, nil
}

// PrimaryValidatorConfig is the config of the primary validator selected
// by a node.
type PrimaryValidatorConfig struct {
	AccountNumber         string `json:"account_number"`
	IPAddress             string `json:"ip_address"`
	NodeIdentifier        string `json:"node_identifier"`
	Port                  uint16 `json:"port"`
	Protocol              string `json:"protocol"`
	Version               string `json:"version"`
	DefaultTransactionFee uint64 `json:"default_transaction_fee"`
	RootAccountFile       string `json:"root_account_file"`
	RootAccountFileHash   string `json:"root_account_file_hash"`
	SeedBlockIdentifier   string `json:"seed_block_identifier"`
	DailyConfirmationRate uint64 `json:"daily_confirmation_rate"`
	Trust                 string `json:"trust"`
}

// URL returns the url of the primary validator.
func (pvc PrimaryValidatorConfig) URL() string {
	return FormatNodeURL(pvc.Protocol, pvc.IPAddress, pvc.Port)
}

// ConfigResponse is the config of a node. PrimaryValidator is nil when the
// node is the primary validator.
type ConfigResponse struct {
	PrimaryValidator      *PrimaryValidatorConfig `json:"primary_validator"`
	AccountNumber         string                  `json:"account_number"`
	IPAddress             string                  `json:"ip_address"`
	NodeIdentifier        string                  `json:"node_identifier"`
	Port                  uint16                  `json:"port"`
	Protocol              string                  `json:"protocol"`
	Version               string                  `json:"version"`
	DefaultTransactionFee uint64                  `json:"default_transaction_fee"`
	NodeType              models.NodeType         `json:"node_type"`
}

// AccountBalanceResponse is a validator's response to the balance endpoint.
type AccountBalanceResponse struct {
	Balance *uint64 `json:"balance"`
}

// AccountBalanceLockResponse is a validator's response to the balance lock
// endpoint.
type AccountBalanceLockResponse struct {
	BalanceLock *string `json:"balance_lock"`
}
