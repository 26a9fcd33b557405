// Package models provides the data types used to make on-chain requests
// against thenewboston network.
package models

import (
	"bytes"
	"encoding/json"
)

// NodeType specifies a node's type.
type NodeType string

// Set of known node types.
const (
	Bank                  NodeType = "BANK"
	PrimaryValidator      NodeType = "PRIMARY_VALIDATOR"
	ConfirmationValidator NodeType = "CONFIRMATION_VALIDATOR"

	// None is only used in search params to specify transactions that
	// are not node fees.
	None NodeType = "NONE"
)

// String implements the fmt.Stringer interface.
func (nt NodeType) String() string {
	return string(nt)
}

// IsFee reports if the node type can be attached to a transaction as a fee.
func (nt NodeType) IsFee() bool {
	return nt == Bank || nt == PrimaryValidator
}

// =============================================================================

// Canonical returns the JSON encoding of the value the way the network
// expects it for signing: keys in sorted order, no insignificant whitespace
// and no HTML escaping. Structs in this package declare their fields in
// json key order so the output matches a sorted-key encoder.
func Canonical(value any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
