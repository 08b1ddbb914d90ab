package crypto

import (
	"encoding/hex"
	"fmt"
)

// SignedMessage is a message signed with an ARK passphrase.
type SignedMessage struct {
	PublicKey string `json:"publickey"`
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

// SignMessage signs SHA-256 of the UTF-8 message with the passphrase key.
func SignMessage(message, passphrase string, version byte) (*SignedMessage, error) {
	key, err := PrivateKeyFromPassphrase(passphrase)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	hash := Sha256([]byte(message))
	sig, err := key.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return &SignedMessage{
		PublicKey: key.PublicKeyHex(),
		Address:   AddressFromPublicKey(key.PublicKey(), version),
		Signature: hex.EncodeToString(sig),
		Message:   message,
	}, nil
}

// VerifyMessage checks a hex signature over message against a hex public
// key. Malformed hex is an error; a signature that does not match is not.
func VerifyMessage(message, signatureHex, publicKeyHex string) (bool, error) {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("decode public key: %w", err)
	}
	if err := ValidatePublicKey(pub); err != nil {
		return false, err
	}
	hash := Sha256([]byte(message))
	return VerifySignature(hash[:], sig, pub), nil
}
