package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Number decodes amounts that nodes send either as JSON numbers or as
// decimal strings.
type Number uint64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Some releases send integral floats such as 1e8.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f < 0 || f != float64(uint64(f)) {
			return fmt.Errorf("invalid amount %q", s)
		}
		v = uint64(f)
	}
	*n = Number(v)
	return nil
}

// Wallet is an account as reported by a node.
type Wallet struct {
	Address         string `json:"address"`
	PublicKey       string `json:"publicKey,omitempty"`
	SecondPublicKey string `json:"secondPublicKey,omitempty"`
	Username        string `json:"username,omitempty"`
	Vote            string `json:"vote,omitempty"`
	Balance         uint64 `json:"balance"`
}

// Delegate is a registered delegate.
type Delegate struct {
	Username  string `json:"username"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Votes     uint64 `json:"votes"`
	Rank      int    `json:"rank,omitempty"`
}

// Transaction is a confirmed transaction.
type Transaction struct {
	ID            string `json:"id"`
	BlockID       string `json:"blockId,omitempty"`
	Type          int    `json:"type"`
	Amount        uint64 `json:"amount"`
	Fee           uint64 `json:"fee"`
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient,omitempty"`
	VendorField   string `json:"vendorField,omitempty"`
	Confirmations uint64 `json:"confirmations"`
	Timestamp     uint32 `json:"timestamp"` // seconds since the network epoch
}

// NodeStatus is the sync state of a node.
type NodeStatus struct {
	Height uint64 `json:"height"`
	Synced bool   `json:"synced"`
	Behind uint64 `json:"behind"`
}

type modernWallet struct {
	Address         string `json:"address"`
	PublicKey       string `json:"publicKey"`
	SecondPublicKey string `json:"secondPublicKey"`
	Username        string `json:"username"`
	Vote            string `json:"vote"`
	Balance         Number `json:"balance"`
}

func (w *modernWallet) normalize() *Wallet {
	return &Wallet{
		Address:         w.Address,
		PublicKey:       w.PublicKey,
		SecondPublicKey: w.SecondPublicKey,
		Username:        w.Username,
		Vote:            w.Vote,
		Balance:         uint64(w.Balance),
	}
}

type legacyWallet struct {
	Address         string `json:"address"`
	PublicKey       string `json:"publicKey"`
	SecondPublicKey string `json:"secondPublicKey"`
	Username        string `json:"username"`
	Balance         Number `json:"balance"`
}

func (w *legacyWallet) normalize() *Wallet {
	return &Wallet{
		Address:         w.Address,
		PublicKey:       w.PublicKey,
		SecondPublicKey: w.SecondPublicKey,
		Username:        w.Username,
		Balance:         uint64(w.Balance),
	}
}

type modernDelegate struct {
	Username  string `json:"username"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Votes     Number `json:"votes"`
	Rank      int    `json:"rank"`
}

func (d *modernDelegate) normalize() *Delegate {
	return &Delegate{Username: d.Username, Address: d.Address, PublicKey: d.PublicKey, Votes: uint64(d.Votes), Rank: d.Rank}
}

type legacyDelegate struct {
	Username  string `json:"username"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Vote      Number `json:"vote"`
	Rate      int    `json:"rate"`
}

func (d *legacyDelegate) normalize() *Delegate {
	return &Delegate{Username: d.Username, Address: d.Address, PublicKey: d.PublicKey, Votes: uint64(d.Vote), Rank: d.Rate}
}

type modernTransaction struct {
	ID            string `json:"id"`
	BlockID       string `json:"blockId"`
	Type          int    `json:"type"`
	Amount        Number `json:"amount"`
	Fee           Number `json:"fee"`
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	VendorField   string `json:"vendorField"`
	Confirmations Number `json:"confirmations"`
	Timestamp     struct {
		Epoch uint32 `json:"epoch"`
	} `json:"timestamp"`
}

func (t *modernTransaction) normalize() *Transaction {
	return &Transaction{
		ID:            t.ID,
		BlockID:       t.BlockID,
		Type:          t.Type,
		Amount:        uint64(t.Amount),
		Fee:           uint64(t.Fee),
		Sender:        t.Sender,
		Recipient:     t.Recipient,
		VendorField:   t.VendorField,
		Confirmations: uint64(t.Confirmations),
		Timestamp:     t.Timestamp.Epoch,
	}
}

type legacyTransaction struct {
	ID            string `json:"id"`
	BlockID       string `json:"blockid"`
	Type          int    `json:"type"`
	Amount        Number `json:"amount"`
	Fee           Number `json:"fee"`
	SenderID      string `json:"senderId"`
	RecipientID   string `json:"recipientId"`
	VendorField   string `json:"vendorField"`
	Confirmations Number `json:"confirmations"`
	Timestamp     uint32 `json:"timestamp"`
}

func (t *legacyTransaction) normalize() *Transaction {
	return &Transaction{
		ID:            t.ID,
		BlockID:       t.BlockID,
		Type:          t.Type,
		Amount:        uint64(t.Amount),
		Fee:           uint64(t.Fee),
		Sender:        t.SenderID,
		Recipient:     t.RecipientID,
		VendorField:   t.VendorField,
		Confirmations: uint64(t.Confirmations),
		Timestamp:     t.Timestamp,
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// IsHex reports whether s is a non-empty hex string.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return true
}
