package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// ErrHardwareUnsupported is returned by every operation of a hardware
// signer that is not available.
var ErrHardwareUnsupported = errors.New("hardware wallet not supported")

// HardwareSigner is the optional hardware wallet capability. Callers check
// IsSupported before use; the other methods fail with
// ErrHardwareUnsupported when it reports false.
type HardwareSigner interface {
	IsSupported() bool
	// Account returns the account at BIP-44 account index.
	Account(index uint32) (Account, error)
	// Accounts returns the first count accounts.
	Accounts(count int) ([]Account, error)
	// Sign signs SHA-256 of txBytes with the key at path.
	Sign(path string, txBytes []byte) ([]byte, error)
}

// NewHardwareSigner builds the hardware capability once at startup. A
// disabled or unconfigured ledger yields an Unsupported signer.
func NewHardwareSigner(cfg config.LedgerConfig, slip44 uint32, version byte) HardwareSigner {
	if !cfg.Enabled {
		return Unsupported{Reason: "ledger support is disabled"}
	}
	if cfg.Mnemonic == "" {
		return Unsupported{Reason: "no ledger device configured"}
	}
	hd, err := NewHDSigner(cfg.Mnemonic, slip44, version)
	if err != nil {
		log.Ledger.Error().Err(err).Msg("Ledger setup failed")
		return Unsupported{Reason: err.Error()}
	}
	return hd
}

// Unsupported is a HardwareSigner with no device behind it.
type Unsupported struct {
	Reason string
}

func (u Unsupported) err() error {
	if u.Reason == "" {
		return ErrHardwareUnsupported
	}
	return fmt.Errorf("%w: %s", ErrHardwareUnsupported, u.Reason)
}

// IsSupported always returns false.
func (u Unsupported) IsSupported() bool { return false }

// Account fails with ErrHardwareUnsupported.
func (u Unsupported) Account(uint32) (Account, error) { return Account{}, u.err() }

// Accounts fails with ErrHardwareUnsupported.
func (u Unsupported) Accounts(int) ([]Account, error) { return nil, u.err() }

// Sign fails with ErrHardwareUnsupported.
func (u Unsupported) Sign(string, []byte) ([]byte, error) { return nil, u.err() }

// HDSigner is a HardwareSigner backed by a BIP-39 mnemonic, deriving keys
// along the same BIP-44 paths as a Ledger device.
type HDSigner struct {
	master  *HDKey
	slip44  uint32
	version byte

	mu    sync.Mutex
	cache map[string]*HDKey
}

// NewHDSigner creates an HDSigner for coin type slip44.
func NewHDSigner(mnemonic string, slip44 uint32, version byte) (*HDSigner, error) {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return &HDSigner{master: master, slip44: slip44, version: version, cache: make(map[string]*HDKey)}, nil
}

// IsSupported returns true.
func (h *HDSigner) IsSupported() bool { return true }

func (h *HDSigner) derive(path string) (*HDKey, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if k, ok := h.cache[path]; ok {
		return k, nil
	}
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	k, err := h.master.DerivePath(indices...)
	if err != nil {
		return nil, err
	}
	h.cache[path] = k
	return k, nil
}

// Account returns the account at index.
func (h *HDSigner) Account(index uint32) (Account, error) {
	path := AccountPath(h.slip44, index)
	k, err := h.derive(path)
	if err != nil {
		return Account{}, err
	}
	return Account{
		Address:   k.Address(h.version),
		PublicKey: fmt.Sprintf("%x", k.PublicKeyBytes()),
		Path:      path,
	}, nil
}

// Accounts returns accounts 0 to count-1.
func (h *HDSigner) Accounts(count int) ([]Account, error) {
	accounts := make([]Account, 0, count)
	for i := 0; i < count; i++ {
		acc, err := h.Account(uint32(i))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Sign signs SHA-256 of txBytes with the key at path.
func (h *HDSigner) Sign(path string, txBytes []byte) ([]byte, error) {
	k, err := h.derive(path)
	if err != nil {
		return nil, err
	}
	priv, err := k.PrivateKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	hash := crypto.Sha256(txBytes)
	sig, err := priv.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	log.Ledger.Debug().Str("path", path).Msg("Signed transaction")
	return sig, nil
}
