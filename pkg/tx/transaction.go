// Package tx defines ARK v1 transactions and their wire serialization.
package tx

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/pkg/crypto"
)

// Type identifies what a transaction does.
type Type uint8

// Supported transaction types.
const (
	TypeTransfer             Type = 0
	TypeSecondSignature      Type = 1
	TypeDelegateRegistration Type = 2
	TypeVote                 Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeTransfer:
		return "transfer"
	case TypeSecondSignature:
		return "secondSignature"
	case TypeDelegateRegistration:
		return "delegateRegistration"
	case TypeVote:
		return "vote"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Epoch is the network epoch; transaction timestamps count seconds from it.
var Epoch = time.Date(2017, time.March, 21, 13, 0, 0, 0, time.UTC)

// Timestamp converts t to seconds since Epoch. Times before Epoch map to 0.
func Timestamp(t time.Time) uint32 {
	d := t.Sub(Epoch)
	if d < 0 {
		return 0
	}
	return uint32(d / time.Second)
}

// MaxVendorFieldSize is the maximum SmartBridge vendor field length in bytes.
const MaxVendorFieldSize = 64

// DelegateAsset is the payload of a delegate registration.
type DelegateAsset struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey,omitempty"`
}

// SignatureAsset is the payload of a second signature registration.
type SignatureAsset struct {
	PublicKey string `json:"publicKey"`
}

// Asset holds the type-specific payload.
type Asset struct {
	Signature *SignatureAsset `json:"signature,omitempty"`
	Delegate  *DelegateAsset  `json:"delegate,omitempty"`
	Votes     []string        `json:"votes,omitempty"`
}

// Transaction is an ARK v1 transaction in its JSON wire form.
type Transaction struct {
	ID              string `json:"id,omitempty"`
	Type            Type   `json:"type"`
	Timestamp       uint32 `json:"timestamp"`
	SenderPublicKey string `json:"senderPublicKey"`
	RecipientID     string `json:"recipientId,omitempty"`
	Amount          uint64 `json:"amount"`
	Fee             uint64 `json:"fee"`
	VendorField     string `json:"vendorField,omitempty"`
	Asset           Asset  `json:"asset"`
	Signature       string `json:"signature,omitempty"`
	SignSignature   string `json:"signSignature,omitempty"`
}

// Bytes serializes the transaction. skipSignature and skipSecondSignature
// leave out the respective signatures; signing hashes the bytes without
// either.
//
// Layout (little endian):
//
//	type(1) timestamp(4) senderPublicKey(33) recipient(21) vendorField(64)
//	amount(8) fee(8) asset(var) [signature] [signSignature]
func (tx *Transaction) Bytes(skipSignature, skipSecondSignature bool) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(byte(tx.Type))
	binary.Write(&buf, binary.LittleEndian, tx.Timestamp)

	sender, err := hex.DecodeString(tx.SenderPublicKey)
	if err != nil || len(sender) != crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: sender public key", ErrInvalidField)
	}
	buf.Write(sender)

	recipient := make([]byte, crypto.AddressSize)
	if tx.RecipientID != "" {
		decoded, err := crypto.DecodeAddress(tx.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("recipient: %w", err)
		}
		recipient = decoded
	}
	buf.Write(recipient)

	if len(tx.VendorField) > MaxVendorFieldSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrVendorFieldTooLong, len(tx.VendorField))
	}
	vendor := make([]byte, MaxVendorFieldSize)
	copy(vendor, tx.VendorField)
	buf.Write(vendor)

	binary.Write(&buf, binary.LittleEndian, tx.Amount)
	binary.Write(&buf, binary.LittleEndian, tx.Fee)

	asset, err := tx.assetBytes()
	if err != nil {
		return nil, err
	}
	buf.Write(asset)

	if !skipSignature && tx.Signature != "" {
		sig, err := hex.DecodeString(tx.Signature)
		if err != nil {
			return nil, fmt.Errorf("%w: signature", ErrInvalidField)
		}
		buf.Write(sig)
	}
	if !skipSecondSignature && tx.SignSignature != "" {
		sig, err := hex.DecodeString(tx.SignSignature)
		if err != nil {
			return nil, fmt.Errorf("%w: second signature", ErrInvalidField)
		}
		buf.Write(sig)
	}
	return buf.Bytes(), nil
}

func (tx *Transaction) assetBytes() ([]byte, error) {
	switch tx.Type {
	case TypeSecondSignature:
		if tx.Asset.Signature == nil {
			return nil, fmt.Errorf("%w: signature asset", ErrMissingAsset)
		}
		b, err := hex.DecodeString(tx.Asset.Signature.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: signature asset", ErrInvalidField)
		}
		return b, nil
	case TypeDelegateRegistration:
		if tx.Asset.Delegate == nil {
			return nil, fmt.Errorf("%w: delegate asset", ErrMissingAsset)
		}
		return []byte(tx.Asset.Delegate.Username), nil
	case TypeVote:
		if len(tx.Asset.Votes) == 0 {
			return nil, fmt.Errorf("%w: votes", ErrMissingAsset)
		}
		return []byte(strings.Join(tx.Asset.Votes, "")), nil
	}
	return nil, nil
}

// SigningHash returns the hash the sender signs.
func (tx *Transaction) SigningHash() (crypto.Hash, error) {
	b, err := tx.Bytes(true, true)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.Sha256(b), nil
}

// secondSigningHash returns the hash the second passphrase signs: the
// serialization including the first signature.
func (tx *Transaction) secondSigningHash() (crypto.Hash, error) {
	b, err := tx.Bytes(false, true)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.Sha256(b), nil
}

// ComputeID returns the transaction id: hex SHA-256 of the full
// serialization.
func (tx *Transaction) ComputeID() (string, error) {
	b, err := tx.Bytes(false, false)
	if err != nil {
		return "", err
	}
	h := crypto.Sha256(b)
	return hex.EncodeToString(h[:]), nil
}
