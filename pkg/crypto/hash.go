// Package crypto provides the ARK key, address and signature primitives.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ARK addresses are defined over RIPEMD-160.
)

// HashSize is the length of a SHA-256 digest.
const HashSize = sha256.Size

// Hash is a SHA-256 digest.
type Hash [HashSize]byte

// Sha256 computes the SHA-256 hash of data.
func Sha256(data []byte) Hash {
	return sha256.Sum256(data)
}

// DoubleSha256 computes Sha256(Sha256(data)).
func DoubleSha256(data []byte) Hash {
	first := Sha256(data)
	return Sha256(first[:])
}

// Ripemd160 computes the RIPEMD-160 hash of data.
func Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}
