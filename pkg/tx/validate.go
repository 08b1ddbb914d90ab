package tx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// Validation errors.
var (
	ErrInvalidField       = errors.New("invalid transaction field")
	ErrMissingAsset       = errors.New("missing transaction asset")
	ErrVendorFieldTooLong = errors.New("vendor field too long")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrInvalidUsername    = errors.New("invalid delegate username")
	ErrInvalidVote        = errors.New("invalid vote")
	ErrMissingSig         = errors.New("transaction is not signed")
	ErrInvalidSig         = errors.New("invalid signature")
)

// MaxUsernameLength is the longest delegate name accepted.
const MaxUsernameLength = 20

var usernamePattern = regexp.MustCompile(`^[a-z0-9!@$&_.]+$`)

// ValidateUsername checks a delegate name.
func ValidateUsername(name string) error {
	if name == "" || len(name) > MaxUsernameLength {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalidUsername, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(name) {
		return fmt.Errorf("%w: only lowercase letters, digits and !@$&_. are allowed", ErrInvalidUsername)
	}
	return nil
}

// ValidateVote checks a vote entry: "+" or "-" followed by a hex public key.
func ValidateVote(vote string) error {
	if len(vote) != 1+2*crypto.PublicKeySize || (vote[0] != '+' && vote[0] != '-') {
		return fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}
	pub, err := hex.DecodeString(vote[1:])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}
	if err := crypto.ValidatePublicKey(pub); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVote, err)
	}
	return nil
}

// Validate checks structure and, when signed, the signature. version is
// the network address version byte.
func (tx *Transaction) Validate(version byte) error {
	if len(tx.VendorField) > MaxVendorFieldSize {
		return fmt.Errorf("%w: %d bytes", ErrVendorFieldTooLong, len(tx.VendorField))
	}

	switch tx.Type {
	case TypeTransfer:
		if tx.Amount == 0 {
			return ErrZeroAmount
		}
		if err := crypto.ValidateAddress(tx.RecipientID, version); err != nil {
			return fmt.Errorf("recipient: %w", err)
		}
	case TypeDelegateRegistration:
		if tx.Asset.Delegate == nil {
			return fmt.Errorf("%w: delegate asset", ErrMissingAsset)
		}
		if err := ValidateUsername(tx.Asset.Delegate.Username); err != nil {
			return err
		}
	case TypeVote:
		if len(tx.Asset.Votes) != 1 {
			return fmt.Errorf("%w: exactly one vote per transaction", ErrInvalidVote)
		}
		if err := ValidateVote(tx.Asset.Votes[0]); err != nil {
			return err
		}
	case TypeSecondSignature:
		if tx.Asset.Signature == nil {
			return fmt.Errorf("%w: signature asset", ErrMissingAsset)
		}
	default:
		return fmt.Errorf("%w: unsupported type %d", ErrInvalidField, tx.Type)
	}

	if tx.Signature == "" {
		return nil
	}
	return tx.VerifySignature()
}

// VerifySignature checks the sender signature.
func (tx *Transaction) VerifySignature() error {
	if tx.Signature == "" {
		return ErrMissingSig
	}
	hash, err := tx.SigningHash()
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return fmt.Errorf("%w: not hex", ErrInvalidSig)
	}
	pub, err := hex.DecodeString(tx.SenderPublicKey)
	if err != nil {
		return fmt.Errorf("%w: sender public key", ErrInvalidField)
	}
	if !crypto.VerifySignature(hash[:], sig, pub) {
		return ErrInvalidSig
	}
	return nil
}
