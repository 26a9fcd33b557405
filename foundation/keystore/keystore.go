// Package keystore saves signing keys and mnemonics to disk encrypted with
// the Web3 Secret Storage format (scrypt and aes-128-ctr).
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/hdwallet"
	ethks "github.com/ethereum/go-ethereum/accounts/keystore"
)

// Extension is the file extension of every key file.
const Extension = ".json"

const version = 1

// Set of errors returned by the keystore.
var (
	ErrExists       = errors.New("key file already exists")
	ErrNotFound     = errors.New("key file not found")
	ErrWrongKind    = errors.New("key file holds a signing key, not a mnemonic")
	ErrDecrypt      = errors.New("could not decrypt key with given passphrase")
	ErrInvalidIndex = errors.New("signing key files only hold account 0/0")
)

// Kind describes the secret held by a key file.
type Kind string

// Set of secrets a key file can hold.
const (
	KindSigningKey Kind = "signing_key"
	KindMnemonic   Kind = "mnemonic"
)

// file is the representation of a key file on disk. The account number is
// kept in the clear so accounts can be listed without a passphrase.
type file struct {
	Version       int              `json:"version"`
	Kind          Kind             `json:"kind"`
	AccountNumber string           `json:"account_number"`
	Crypto        ethks.CryptoJSON `json:"crypto"`
}

// Secret is a decrypted key file.
type Secret struct {
	Kind          Kind
	AccountNumber string
	value         string
}

// Account returns the account held by the secret. Mnemonics derive the
// account from the indexes, signing keys only accept 0/0.
func (s Secret) Account(accountIndex uint32, addressIndex uint32) (account.Account, error) {
	switch s.Kind {
	case KindMnemonic:
		w, err := s.Wallet()
		if err != nil {
			return account.Account{}, err
		}
		return w.Account(accountIndex, addressIndex)

	default:
		if accountIndex != 0 || addressIndex != 0 {
			return account.Account{}, ErrInvalidIndex
		}
		return account.FromSigningKey(s.value)
	}
}

// Wallet returns the hd wallet held by the secret.
func (s Secret) Wallet() (*hdwallet.HDWallet, error) {
	if s.Kind != KindMnemonic {
		return nil, ErrWrongKind
	}
	return hdwallet.FromMnemonic(s.value, "")
}

// =============================================================================

// Store manages a folder of key files.
type Store struct {
	dir     string
	scryptN int
	scryptP int
}

// New constructs a store for the folder. Light uses the cheaper scrypt
// parameters, which is only meant for tests and development nodes.
func New(dir string, light bool) *Store {
	s := Store{
		dir:     dir,
		scryptN: ethks.StandardScryptN,
		scryptP: ethks.StandardScryptP,
	}

	if light {
		s.scryptN = ethks.LightScryptN
		s.scryptP = ethks.LightScryptP
	}

	return &s
}

// Dir returns the folder used by the store.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of the named key file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, strings.TrimSuffix(name, Extension)+Extension)
}

// SaveAccount encrypts the signing key of the account under the name.
func (s *Store) SaveAccount(name string, acc account.Account, passphrase string) error {
	return s.save(name, KindSigningKey, acc.AccountNumber(), acc.SigningKey(), passphrase)
}

// SaveWallet encrypts the mnemonic of the wallet under the name. The first
// account of the wallet is recorded as the file's account number.
func (s *Store) SaveWallet(name string, w *hdwallet.HDWallet, passphrase string) error {
	if w.Mnemonic() == "" {
		return errors.New("wallet has no mnemonic")
	}

	acc, err := w.FirstAccount()
	if err != nil {
		return err
	}

	return s.save(name, KindMnemonic, acc.AccountNumber(), w.Mnemonic(), passphrase)
}

// Load decrypts the named key file.
func (s *Store) Load(name string, passphrase string) (Secret, error) {
	f, err := s.read(name)
	if err != nil {
		return Secret{}, err
	}

	data, err := ethks.DecryptDataV3(f.Crypto, passphrase)
	if err != nil {
		return Secret{}, fmt.Errorf("%s: %w", name, ErrDecrypt)
	}

	secret := Secret{
		Kind:          f.Kind,
		AccountNumber: f.AccountNumber,
		value:         string(data),
	}

	return secret, nil
}

// LoadOrCreate returns the account in the named signing key file, creating
// a random account when the file doesn't exist.
func (s *Store) LoadOrCreate(name string, passphrase string) (account.Account, bool, error) {
	secret, err := s.Load(name, passphrase)
	switch {
	case err == nil:
		acc, err := secret.Account(0, 0)
		return acc, false, err

	case !errors.Is(err, ErrNotFound):
		return account.Account{}, false, err
	}

	acc, err := account.New()
	if err != nil {
		return account.Account{}, false, err
	}

	if err := s.SaveAccount(name, acc, passphrase); err != nil {
		return account.Account{}, false, err
	}

	return acc, true, nil
}

// AccountNumber returns the account number recorded in the named key file
// without decrypting it.
func (s *Store) AccountNumber(name string) (string, error) {
	f, err := s.read(name)
	if err != nil {
		return "", err
	}
	return f.AccountNumber, nil
}

// Names returns the names of every key file in the folder, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Extension))
	}

	sort.Strings(names)
	return names, nil
}

// =============================================================================

func (s *Store) save(name string, kind Kind, accountNumber string, secret string, passphrase string) error {
	path := s.Path(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}

	cj, err := ethks.EncryptDataV3([]byte(secret), []byte(passphrase), s.scryptN, s.scryptP)
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", name, err)
	}

	f := file{
		Version:       version,
		Kind:          kind,
		AccountNumber: accountNumber,
		Crypto:        cj,
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", s.dir, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func (s *Store) read(name string) (file, error) {
	path := s.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return file{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return file{}, err
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return file{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	if f.Version != version {
		return file{}, fmt.Errorf("%s: unsupported version %d", path, f.Version)
	}

	return f, nil
}
