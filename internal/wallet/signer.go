package wallet

import (
	"fmt"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// Account is a derived ARK account.
type Account struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Path      string `json:"path,omitempty"`
}

// Signer derives accounts from passphrases and signs transaction bytes
// with them.
type Signer interface {
	Derive(passphrase string) (Account, error)
	Sign(passphrase string, txBytes []byte) ([]byte, error)
}

// PassphraseSigner is the software Signer: the key is SHA-256 of the
// passphrase.
type PassphraseSigner struct {
	version byte
}

// NewPassphraseSigner creates a Signer for the network version byte.
func NewPassphraseSigner(version byte) *PassphraseSigner {
	return &PassphraseSigner{version: version}
}

// Derive returns the account of passphrase.
func (s *PassphraseSigner) Derive(passphrase string) (Account, error) {
	key, err := crypto.PrivateKeyFromPassphrase(passphrase)
	if err != nil {
		return Account{}, err
	}
	defer key.Zero()
	return Account{
		Address:   crypto.AddressFromPublicKey(key.PublicKey(), s.version),
		PublicKey: key.PublicKeyHex(),
	}, nil
}

// Sign signs SHA-256 of txBytes with the passphrase key.
func (s *PassphraseSigner) Sign(passphrase string, txBytes []byte) ([]byte, error) {
	key, err := crypto.PrivateKeyFromPassphrase(passphrase)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	hash := crypto.Sha256(txBytes)
	sig, err := key.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// Key returns the private key of passphrase, for callers that build and
// sign transactions directly.
func (s *PassphraseSigner) Key(passphrase string) (*crypto.PrivateKey, error) {
	return crypto.PrivateKeyFromPassphrase(passphrase)
}
