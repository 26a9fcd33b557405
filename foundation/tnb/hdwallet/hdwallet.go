// Package hdwallet implements a Hierarchical Deterministic Wallet that
// generates child accounts from a mnemonic phrase and stores them in a
// tree like structure.
//
// Accounts are located with bip44 paths using thenewboston coin type:
//
//	m / 44' / 2002' / account_index' / 0' / address_index'
//
// Keys are derived with SLIP-10 for ed25519, which only supports hardened
// children, so every level of the path is hardened.
package hdwallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/anyproto/go-slip10"
	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/tyler-smith/go-bip39"
)

// MaxChildIndex is the max number for the account_index and address_index.
const MaxChildIndex uint32 = 2_147_483_647

// CoinType is the bip44 coin type registered for thenewboston.
const CoinType = 2002

// mnemonicEntropy produces a 12 word mnemonic phrase.
const mnemonicEntropy = 128

// Seed bounds from bip32.
const (
	minSeedBytes = 16
	maxSeedBytes = 64
)

// Set of errors returned by the wallet.
var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidSeed     = errors.New("invalid seed")
	ErrInvalidPath     = errors.New("invalid derivation path")
	ErrIndexOutOfRange = errors.New("index is greater than the max child index (2_147_483_647)")
)

// HDWallet holds the seed of a wallet and the node for the coin type level
// of the bip44 tree. The value is immutable and safe for concurrent use.
type HDWallet struct {
	mnemonic string
	seed     []byte
	coin     slip10.Node
}

// New constructs a wallet from a random 12 word mnemonic phrase. Save the
// mnemonic phrase somewhere secure so the wallet can be restored later.
func New() (*HDWallet, error) {
	return NewWithPassword("")
}

// NewWithPassword constructs a wallet from a random 12 word mnemonic
// phrase secured with the specified password.
func NewWithPassword(password string) (*HDWallet, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropy)
	if err != nil {
		return nil, fmt.Errorf("generating entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("generating mnemonic: %w", err)
	}

	return FromMnemonic(mnemonic, password)
}

// FromMnemonic constructs a wallet from a 12, 18 or 24 word mnemonic phrase.
// The password is optional, a different password produces a different seed
// and therefore a different set of accounts. Words may be separated by any
// run of whitespace.
func FromMnemonic(mnemonic string, password string) (*HDWallet, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMnemonic, err)
	}

	return newWallet(mnemonic, seed)
}

// FromSeed constructs a wallet from a hex encoded seed. The wallet has no
// mnemonic phrase.
func FromSeed(seedHex string) (*HDWallet, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSeed, err)
	}

	if len(seed) < minSeedBytes || len(seed) > maxSeedBytes {
		return nil, fmt.Errorf("%w: seed needs to be between %d and %d bytes but found %d", ErrInvalidSeed, minSeedBytes, maxSeedBytes, len(seed))
	}

	return newWallet("", seed)
}

func newWallet(mnemonic string, seed []byte) (*HDWallet, error) {
	coin, err := slip10.DeriveForPath(fmt.Sprintf("m/44'/%d'", CoinType), seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSeed, err)
	}

	hd := HDWallet{
		mnemonic: mnemonic,
		seed:     seed,
		coin:     coin,
	}

	return &hd, nil
}

// Mnemonic returns the mnemonic phrase.
func (hd *HDWallet) Mnemonic() string {
	return hd.mnemonic
}

// SeedHex returns the seed in hex format.
func (hd *HDWallet) SeedHex() string {
	return hex.EncodeToString(hd.seed)
}

// String implements the fmt.Stringer interface without leaking the phrase.
func (hd *HDWallet) String() string {
	return fmt.Sprintf("HDWallet{Mnemonic: %d words}", len(strings.Fields(hd.mnemonic)))
}

// Account retrieves the account at the specified account and address index.
func (hd *HDWallet) Account(accountIndex uint32, addressIndex uint32) (account.Account, error) {
	if accountIndex > MaxChildIndex {
		return account.Account{}, fmt.Errorf("account index %d: %w", accountIndex, ErrIndexOutOfRange)
	}

	if addressIndex > MaxChildIndex {
		return account.Account{}, fmt.Errorf("address index %d: %w", addressIndex, ErrIndexOutOfRange)
	}

	key := hd.coin
	for _, index := range []uint32{accountIndex, 0, addressIndex} {
		child, err := key.Derive(slip10.FirstHardenedIndex + index)
		if err != nil {
			return account.Account{}, fmt.Errorf("deriving %s: %w", Path(accountIndex, addressIndex), err)
		}
		key = child
	}

	return fromNode(key)
}

// AccountFromFirstColumn retrieves the account at the address index where
// the account index is 0.
func (hd *HDWallet) AccountFromFirstColumn(addressIndex uint32) (account.Account, error) {
	return hd.Account(0, addressIndex)
}

// FirstAccount retrieves the first account from the wallet.
func (hd *HDWallet) FirstAccount() (account.Account, error) {
	return hd.Account(0, 0)
}

// AccountFromPath retrieves the account at the specified path. Every level
// must be hardened, like m/44'/2002'/0'/0'/0'.
func (hd *HDWallet) AccountFromPath(path string) (account.Account, error) {
	key, err := slip10.DeriveForPath(strings.TrimSpace(path), hd.seed)
	if err != nil {
		return account.Account{}, fmt.Errorf("%w: %q: %s", ErrInvalidPath, path, err)
	}

	return fromNode(key)
}

// Path returns the bip44 path for the account and address index.
func Path(accountIndex uint32, addressIndex uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'/0'/%d'", CoinType, accountIndex, addressIndex)
}

// fromNode builds the account from the private key of a derived node.
func fromNode(key slip10.Node) (account.Account, error) {
	_, priv := key.Keypair()
	return account.FromSeed(priv.Seed())
}
