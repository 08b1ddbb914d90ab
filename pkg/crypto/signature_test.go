package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

const (
	testPassphrase = "this is a top secret passphrase"
	testPublicKey  = "034151a3ec46b5670a682b0a63394f863587d1bc97483b1b6c70eb58e7f0aed192"
)

func TestPrivateKeyFromPassphrase(t *testing.T) {
	tests := []struct {
		passphrase string
		publicKey  string
	}{
		{testPassphrase, testPublicKey},
		{
			"candy maple cake sugar pudding cream honey rich smooth crumble sweet treat",
			"03e734aba4bc673b5c106bd90dfb7fe19a2faf32aa0a4a40d62ddda9d41ab239e4",
		},
	}
	for _, tt := range tests {
		key, err := PrivateKeyFromPassphrase(tt.passphrase)
		if err != nil {
			t.Fatalf("PrivateKeyFromPassphrase(%q): %v", tt.passphrase, err)
		}
		if got := key.PublicKeyHex(); got != tt.publicKey {
			t.Errorf("public key of %q = %s, want %s", tt.passphrase, got, tt.publicKey)
		}
	}

	if _, err := PrivateKeyFromPassphrase(""); err == nil {
		t.Error("empty passphrase should be rejected")
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	k2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if len(k1.PublicKey()) != PublicKeySize {
		t.Errorf("PublicKey() length = %d, want %d", len(k1.PublicKey()), PublicKeySize)
	}
	if bytes.Equal(k1.Serialize(), k2.Serialize()) {
		t.Error("two generated keys should not be identical")
	}
}

func TestPrivateKeyFromBytes_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 16, 64} {
		if _, err := PrivateKeyFromBytes(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte key", n)
		}
	}
}

func TestSign_Verify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	hash := Sha256([]byte("test message"))
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if sig[0] != 0x30 {
		t.Errorf("signature is not DER: %x", sig)
	}
	if !VerifySignature(hash[:], sig, key.PublicKey()) {
		t.Error("signature should verify against the correct key and hash")
	}

	wrong := Sha256([]byte("other message"))
	if VerifySignature(wrong[:], sig, key.PublicKey()) {
		t.Error("signature should not verify with wrong hash")
	}

	other, _ := GenerateKey()
	if VerifySignature(hash[:], sig, other.PublicKey()) {
		t.Error("signature should not verify with wrong public key")
	}
}

func TestSign_Deterministic(t *testing.T) {
	key, _ := PrivateKeyFromPassphrase(testPassphrase)
	hash := Sha256([]byte("deterministic"))
	sig1, _ := key.Sign(hash[:])
	sig2, _ := key.Sign(hash[:])
	if !bytes.Equal(sig1, sig2) {
		t.Error("RFC 6979 signatures should be deterministic")
	}
}

func TestSign_InvalidHashLength(t *testing.T) {
	key, _ := GenerateKey()
	if _, err := key.Sign([]byte("too short")); err == nil {
		t.Error("Sign() should reject non-32-byte hash")
	}
}

func TestVerify_InvalidInputs(t *testing.T) {
	pub, _ := hex.DecodeString(testPublicKey)
	tests := []struct {
		name      string
		hash      []byte
		signature []byte
		publicKey []byte
	}{
		{"nil hash", nil, []byte{0x30}, pub},
		{"empty signature", make([]byte, 32), nil, pub},
		{"empty public key", make([]byte, 32), []byte{0x30}, nil},
		{"garbage public key", make([]byte, 32), []byte{0x30}, make([]byte, 33)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature(tt.hash, tt.signature, tt.publicKey) {
				t.Error("VerifySignature should return false")
			}
		})
	}
}

func TestValidatePublicKey(t *testing.T) {
	pub, _ := hex.DecodeString(testPublicKey)
	if err := ValidatePublicKey(pub); err != nil {
		t.Errorf("ValidatePublicKey: %v", err)
	}
	if err := ValidatePublicKey(pub[:32]); err == nil {
		t.Error("short key should be rejected")
	}
}
