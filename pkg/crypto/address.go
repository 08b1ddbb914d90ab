package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressSize is the length of a decoded address: a version byte followed
// by the RIPEMD-160 of the public key.
const AddressSize = 21

// ErrInvalidAddress is returned for addresses that fail to decode.
var ErrInvalidAddress = errors.New("invalid address")

// AddressFromPublicKey derives the base58check address of a compressed
// public key for the given network version byte.
func AddressFromPublicKey(publicKey []byte, version byte) string {
	payload := make([]byte, 0, AddressSize)
	payload = append(payload, version)
	payload = append(payload, Ripemd160(publicKey)...)
	return base58CheckEncode(payload)
}

// AddressFromPassphrase derives the address of an ARK passphrase.
func AddressFromPassphrase(passphrase string, version byte) (string, error) {
	key, err := PrivateKeyFromPassphrase(passphrase)
	if err != nil {
		return "", err
	}
	return AddressFromPublicKey(key.PublicKey(), version), nil
}

// DecodeAddress returns the 21 address bytes after checking the checksum.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != AddressSize+4 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(raw))
	}
	payload, sum := raw[:AddressSize], raw[AddressSize:]
	check := DoubleSha256(payload)
	if !bytes.Equal(check[:4], sum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return payload, nil
}

// ValidateAddress checks that addr decodes and carries version.
func ValidateAddress(addr string, version byte) error {
	payload, err := DecodeAddress(addr)
	if err != nil {
		return err
	}
	if payload[0] != version {
		return fmt.Errorf("%w: version %d, want %d", ErrInvalidAddress, payload[0], version)
	}
	return nil
}

func base58CheckEncode(payload []byte) string {
	sum := DoubleSha256(payload)
	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, payload...)
	buf = append(buf, sum[:4]...)
	return base58.Encode(buf)
}
