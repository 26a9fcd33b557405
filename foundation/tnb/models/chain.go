package models

import (
	"encoding/json"
	"fmt"
)

// Trust bounds for an account.
const (
	MinTrust = 0
	MaxTrust = 100
)

// ChainData is the set of supported node requests.
type ChainData interface {
	chainData()
}

// UpdateAccountTrust is the request for changing an account's trust.
type UpdateAccountTrust struct {
	Trust int32 `json:"trust"`
}

func (UpdateAccountTrust) chainData() {}

// Validate checks the trust is within range.
func (uat UpdateAccountTrust) Validate() error {
	if uat.Trust < MinTrust || uat.Trust > MaxTrust {
		return fmt.Errorf("trust %d out of range [%d, %d]", uat.Trust, MinTrust, MaxTrust)
	}
	return nil
}

// SignedMessage is the structure for making node requests to the network.
type SignedMessage struct {
	Message        ChainData `json:"message"`
	NodeIdentifier string    `json:"node_identifier"`
	Signature      string    `json:"signature"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. Account trust
// updates are the only supported request.
func (sm *SignedMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message        UpdateAccountTrust `json:"message"`
		NodeIdentifier string             `json:"node_identifier"`
		Signature      string             `json:"signature"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	sm.Message = raw.Message
	sm.NodeIdentifier = raw.NodeIdentifier
	sm.Signature = raw.Signature

	return nil
}
