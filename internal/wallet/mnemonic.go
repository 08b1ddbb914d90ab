// Package wallet derives ARK accounts from passphrases and HD seeds and
// signs transactions with them.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// PassphraseEntropyBits is the entropy of a generated passphrase: 12 words.
const PassphraseEntropyBits = 128

// SeedSize is the length of a BIP-39 seed in bytes.
const SeedSize = 64

// GeneratePassphrase creates a new 12-word BIP-39 passphrase.
func GeneratePassphrase() (string, error) {
	entropy, err := bip39.NewEntropy(PassphraseEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks word list membership and checksum. ARK
// passphrases need not be valid mnemonics; HD derivation requires one.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// SeedFromMnemonic derives the 64-byte BIP-39 seed of mnemonic with an
// optional password.
func SeedFromMnemonic(mnemonic, password string) ([]byte, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

func normalizeMnemonic(m string) string {
	return strings.Join(strings.Fields(m), " ")
}
