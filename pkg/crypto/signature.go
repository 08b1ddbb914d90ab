package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PublicKeySize is the length of a compressed public key.
const PublicKeySize = 33

// Signer signs 32-byte hashes with ECDSA/secp256k1.
type Signer interface {
	// Sign produces a DER-encoded signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// PrivateKey wraps a secp256k1 private key for ECDSA signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PrivateKeyFromPassphrase derives the key of an ARK passphrase: the
// secret is SHA-256 of the UTF-8 passphrase.
func PrivateKeyFromPassphrase(passphrase string) (*PrivateKey, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is empty")
	}
	secret := Sha256([]byte(passphrase))
	return PrivateKeyFromBytes(secret[:])
}

// Sign produces a deterministic (RFC 6979), low-S, DER-encoded ECDSA
// signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != HashSize {
		return nil, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(hash))
	}
	return ecdsa.Sign(pk.key, hash).Serialize(), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// PublicKeyHex returns the compressed public key as hex.
func (pk *PrivateKey) PublicKeyHex() string {
	return hex.EncodeToString(pk.PublicKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// ValidatePublicKey reports whether b is a valid compressed public key.
func ValidatePublicKey(b []byte) error {
	if len(b) != PublicKeySize {
		return fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(b))
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	return nil
}

// VerifySignature checks a DER-encoded ECDSA signature against a 32-byte
// hash and a compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	if len(hash) != HashSize {
		return false
	}
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}
