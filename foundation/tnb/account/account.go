// Package account provides support for thenewboston accounts. An account is
// an anonymous identity made of an ed25519 signing key and the account
// number derived from it, where coins can be sent to and from.
//
// Whoever has access to an account's signing key has total control over the
// account's coins.
package account

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// Sizes of the hex encoded values used by accounts.
const (
	KeyHexLength       = 2 * ed25519.SeedSize
	SignatureHexLength = 2 * ed25519.SignatureSize
)

// ErrInvalidSigningKey is returned when a signing key can't be decoded.
var ErrInvalidSigningKey = errors.New("invalid signing key")

// Account represents a key pair on the network. The value is immutable
// and safe for concurrent use.
type Account struct {
	accountNumber ed25519.PublicKey
	signingKey    ed25519.PrivateKey
	numberHex     string
	keyHex        string
}

// New constructs a random account.
func New() (Account, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Account{}, fmt.Errorf("generating key: %w", err)
	}

	return create(pub, priv), nil
}

// FromSigningKey constructs an account from a hex encoded signing key.
func FromSigningKey(signingKey string) (Account, error) {
	seed, err := hex.DecodeString(signingKey)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrInvalidSigningKey, err)
	}

	if len(seed) != ed25519.SeedSize {
		return Account{}, fmt.Errorf("%w: signing key hex needs to be of length %d but found %d", ErrInvalidSigningKey, KeyHexLength, len(signingKey))
	}

	return FromSeed(seed)
}

// FromSeed constructs an account from the raw 32 byte signing key.
func FromSeed(seed []byte) (Account, error) {
	if len(seed) != ed25519.SeedSize {
		return Account{}, fmt.Errorf("%w: seed needs to be %d bytes but found %d", ErrInvalidSigningKey, ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	return create(pub, priv), nil
}

func create(pub ed25519.PublicKey, priv ed25519.PrivateKey) Account {
	return Account{
		accountNumber: pub,
		signingKey:    priv,
		numberHex:     hex.EncodeToString(pub),
		keyHex:        hex.EncodeToString(priv.Seed()),
	}
}

// AccountNumber returns the account number as a hex string.
func (a Account) AccountNumber() string {
	return a.numberHex
}

// SigningKey returns the signing key as a hex string.
func (a Account) SigningKey() string {
	return a.keyHex
}

// KeyPair returns the account number and signing key.
func (a Account) KeyPair() (accountNumber string, signingKey string) {
	return a.numberHex, a.keyHex
}

// IsZero reports if the account was never initialized.
func (a Account) IsZero() bool {
	return a.signingKey == nil
}

// String implements the fmt.Stringer interface. The signing key is redacted.
func (a Account) String() string {
	if a.IsZero() {
		return "Account{}"
	}
	return fmt.Sprintf("Account{AccountNumber: %s, SigningKey: %s...}", a.numberHex, a.keyHex[:4])
}

// CreateSignature signs the message with the account's signing key and
// returns the signature as a hex string.
func (a Account) CreateSignature(message string) string {
	return a.sign([]byte(message))
}

func (a Account) sign(data []byte) string {
	return hex.EncodeToString(ed25519.Sign(a.signingKey, data))
}

// CreateBlockMessage signs the block so it can be broadcasted to make
// changes to this account on the network.
func (a Account) CreateBlockMessage(block models.BlockType) (models.BlockMessage, error) {
	data, err := models.Canonical(block)
	if err != nil {
		return models.BlockMessage{}, fmt.Errorf("encoding block: %w", err)
	}

	bm := models.BlockMessage{
		AccountNumber: a.numberHex,
		Message:       block,
		Signature:     a.sign(data),
	}

	return bm, nil
}

// CreateSignedMessage signs the request so a node can broadcast it to make
// changes on the network. The account acts as the node identifier.
func (a Account) CreateSignedMessage(data models.ChainData) (models.SignedMessage, error) {
	msg, err := models.Canonical(data)
	if err != nil {
		return models.SignedMessage{}, fmt.Errorf("encoding message: %w", err)
	}

	sm := models.SignedMessage{
		Message:        data,
		NodeIdentifier: a.numberHex,
		Signature:      a.sign(msg),
	}

	return sm, nil
}

// =============================================================================

// IsValidKeyPair checks if the signing key derives the account number.
func IsValidKeyPair(signingKey string, accountNumber string) bool {
	acc, err := FromSigningKey(signingKey)
	if err != nil {
		return false
	}

	return acc.AccountNumber() == accountNumber
}

// VerifySignature verifies the message was signed by the specified account
// number. Malformed input is reported as an invalid signature.
func VerifySignature(signature string, message string, accountNumber string) bool {
	return verify(signature, []byte(message), accountNumber)
}

// VerifyBlockMessage verifies the block message was signed by the account
// that sent it.
func VerifyBlockMessage(bm models.BlockMessage) bool {
	data, err := models.Canonical(bm.Message)
	if err != nil {
		return false
	}

	return verify(bm.Signature, data, bm.AccountNumber)
}

// VerifySignedMessage verifies the request was signed by its node identifier.
func VerifySignedMessage(sm models.SignedMessage) bool {
	data, err := models.Canonical(sm.Message)
	if err != nil {
		return false
	}

	return verify(sm.Signature, data, sm.NodeIdentifier)
}

func verify(signature string, data []byte, accountNumber string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	pub, err := hex.DecodeString(accountNumber)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}
