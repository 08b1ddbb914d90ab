package network

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// TxError is a node's reason for refusing one transaction.
type TxError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TxReceipt is a node's answer to a transaction submission.
type TxReceipt struct {
	Peer      string               `json:"peer"`
	Accept    []string             `json:"accept"`
	Broadcast []string             `json:"broadcast"`
	Excess    []string             `json:"excess"`
	Invalid   []string             `json:"invalid"`
	Errors    map[string][]TxError `json:"errors,omitempty"`
}

// Accepted reports whether the node took the transaction into its pool
// or relayed it.
func (r *TxReceipt) Accepted() bool {
	return len(r.Invalid) == 0 && (len(r.Accept) > 0 || len(r.Broadcast) > 0)
}

// reason summarizes the node's errors, sorted by transaction id.
func (r *TxReceipt) reason() string {
	if len(r.Errors) == 0 {
		switch {
		case len(r.Invalid) > 0:
			return "invalid transaction"
		case len(r.Excess) > 0:
			return "transaction pool is full"
		default:
			return "not accepted"
		}
	}
	ids := make([]string, 0, len(r.Errors))
	for id := range r.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var parts []string
	for _, id := range ids {
		for _, e := range r.Errors[id] {
			msg := e.Message
			if e.Type != "" {
				msg = e.Type + ": " + msg
			}
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// rejectedID returns the id of the refused transaction, when reported.
func (r *TxReceipt) rejectedID() string {
	switch {
	case len(r.Invalid) > 0:
		return r.Invalid[0]
	case len(r.Excess) > 0:
		return r.Excess[0]
	}
	first := ""
	for id := range r.Errors {
		if first == "" || id < first {
			first = id
		}
	}
	return first
}

// decodeReceipt reads a submission response of either generation.
func decodeReceipt(p config.Protocol, peer string, res *nodeapi.Result) (*TxReceipt, error) {
	rec := &TxReceipt{Peer: peer}

	if p == config.ProtocolV1 {
		var legacy struct {
			TransactionIDs []string `json:"transactionIds"`
		}
		if err := res.Decode(&legacy); err != nil {
			return nil, err
		}
		rec.Accept = legacy.TransactionIDs
		return rec, nil
	}

	if err := res.Decode(rec); err != nil {
		return nil, err
	}
	rec.Peer = peer
	if len(res.Errors) > 0 {
		if err := json.Unmarshal(res.Errors, &rec.Errors); err != nil {
			return nil, fmt.Errorf("%w: errors: %v", nodeapi.ErrMalformedResponse, err)
		}
	}
	return rec, nil
}
