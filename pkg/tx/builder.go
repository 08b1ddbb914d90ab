package tx

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx      *Transaction
	version byte
}

// NewBuilder creates a builder for a transaction of type t on the network
// with address version byte version. The fee defaults to the static fee
// and the timestamp to now.
func NewBuilder(t Type, version byte) *Builder {
	return &Builder{
		tx: &Transaction{
			Type:      t,
			Timestamp: Timestamp(time.Now()),
			Fee:       DefaultFee(t),
		},
		version: version,
	}
}

// NewTransfer starts a transfer of amount arktoshi to recipient.
func NewTransfer(version byte, recipient string, amount uint64, vendorField string) *Builder {
	b := NewBuilder(TypeTransfer, version)
	b.tx.RecipientID = recipient
	b.tx.Amount = amount
	b.tx.VendorField = vendorField
	return b
}

// NewDelegateRegistration starts a delegate registration for username.
func NewDelegateRegistration(version byte, username string) *Builder {
	b := NewBuilder(TypeDelegateRegistration, version)
	b.tx.Asset.Delegate = &DelegateAsset{Username: username}
	return b
}

// NewVote starts a vote ("+pubkey") or unvote ("-pubkey").
func NewVote(version byte, vote string) *Builder {
	b := NewBuilder(TypeVote, version)
	b.tx.Asset.Votes = []string{vote}
	return b
}

// NewSecondSignature starts the registration of a second public key.
func NewSecondSignature(version byte, secondPublicKey []byte) *Builder {
	b := NewBuilder(TypeSecondSignature, version)
	b.tx.Asset.Signature = &SignatureAsset{PublicKey: hex.EncodeToString(secondPublicKey)}
	return b
}

// SetFee overrides the fee.
func (b *Builder) SetFee(fee uint64) *Builder {
	b.tx.Fee = fee
	return b
}

// SetTimestamp sets the transaction time.
func (b *Builder) SetTimestamp(t time.Time) *Builder {
	b.tx.Timestamp = Timestamp(t)
	return b
}

// SetSender sets the sender public key. Votes and second signature
// registrations are addressed to the sender's own address.
func (b *Builder) SetSender(publicKey []byte) *Builder {
	b.tx.SenderPublicKey = hex.EncodeToString(publicKey)
	if b.tx.Type == TypeVote || b.tx.Type == TypeSecondSignature {
		b.tx.RecipientID = crypto.AddressFromPublicKey(publicKey, b.version)
	}
	if b.tx.Type == TypeDelegateRegistration && b.tx.Asset.Delegate != nil {
		b.tx.Asset.Delegate.PublicKey = b.tx.SenderPublicKey
	}
	return b
}

// SigningBytes returns the bytes a signer must sign, for signers that hash
// on their own such as hardware wallets. SetSender must be called first.
func (b *Builder) SigningBytes() ([]byte, error) {
	if err := b.tx.Validate(b.version); err != nil {
		return nil, err
	}
	return b.tx.Bytes(true, true)
}

// SetSignature attaches a DER signature produced over SigningBytes.
func (b *Builder) SetSignature(sig []byte) error {
	b.tx.Signature = hex.EncodeToString(sig)
	if err := b.tx.VerifySignature(); err != nil {
		b.tx.Signature = ""
		return err
	}
	return nil
}

// Sign sets the sender from key and signs the transaction.
func (b *Builder) Sign(key crypto.Signer) error {
	b.SetSender(key.PublicKey())
	if err := b.tx.Validate(b.version); err != nil {
		return err
	}
	hash, err := b.tx.SigningHash()
	if err != nil {
		return err
	}
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	b.tx.Signature = hex.EncodeToString(sig)
	return nil
}

// SecondSign adds the second passphrase signature. Sign must be called
// first.
func (b *Builder) SecondSign(key crypto.Signer) error {
	if b.tx.Signature == "" {
		return ErrMissingSig
	}
	hash, err := b.tx.secondSigningHash()
	if err != nil {
		return err
	}
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("second sign tx: %w", err)
	}
	b.tx.SignSignature = hex.EncodeToString(sig)
	return nil
}

// Build computes the id and returns the signed transaction.
func (b *Builder) Build() (*Transaction, error) {
	if b.tx.Signature == "" {
		return nil, ErrMissingSig
	}
	id, err := b.tx.ComputeID()
	if err != nil {
		return nil, err
	}
	b.tx.ID = id
	return b.tx, nil
}
