package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// BIP-44 path constants. Full path: m/44'/slip44'/account'/change/index.
const (
	PurposeBIP44   = bip32.FirstHardenedChild + 44
	ChangeExternal = 0
)

// HDKey is a BIP-32 hierarchical deterministic key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives the child at index. Add bip32.FirstHardenedChild for
// hardened derivation.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// PrivateKey returns the signing key.
func (k *HDKey) PrivateKey() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot sign with a public-only key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// Address returns the ARK address of the key for the network version byte.
func (k *HDKey) Address(version byte) string {
	return crypto.AddressFromPublicKey(k.PublicKeyBytes(), version)
}

// AccountPath returns the BIP-44 path of account on coin type slip44, in
// the "44'/111'/0'/0/0" form hardware wallets use.
func AccountPath(slip44, account uint32) string {
	return fmt.Sprintf("44'/%d'/%d'/%d/0", slip44, account, ChangeExternal)
}

// ParsePath parses a BIP-32 path such as "m/44'/111'/0'/0/0". Both ' and
// h mark hardened segments.
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "m/")
	if path == "" {
		return nil, fmt.Errorf("empty derivation path")
	}
	parts := strings.Split(path, "/")
	indices := make([]uint32, 0, len(parts))
	for _, p := range parts {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		p = strings.TrimRight(p, "'h")
		n, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q", p)
		}
		idx := uint32(n)
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
