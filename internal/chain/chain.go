// Package chain reads account, delegate and transaction state from ARK
// nodes and normalizes the answers of both API generations.
package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// ErrNotFound is returned when a node reports that the requested object
// does not exist.
var ErrNotFound = errors.New("not found")

// Getter issues GET requests against the selected node. *network.Client
// satisfies it.
type Getter interface {
	GetFromNode(ctx context.Context, path string, params url.Values, explicitPeer string) (*nodeapi.Result, error)
}

// Reader performs typed reads for one network.
type Reader struct {
	get      Getter
	protocol config.Protocol
	ep       nodeapi.Endpoints
}

// NewReader creates a Reader for a network speaking protocol p.
func NewReader(g Getter, p config.Protocol) *Reader {
	return &Reader{get: g, protocol: p, ep: nodeapi.EndpointsFor(p)}
}

func (r *Reader) legacy() bool {
	return r.protocol == config.ProtocolV1
}

// fetch GETs path and maps node-side "not found" answers to ErrNotFound.
func (r *Reader) fetch(ctx context.Context, what, path string, params url.Values) (*nodeapi.Result, error) {
	res, err := r.get.GetFromNode(ctx, path, params, "")
	if err != nil {
		if nodeapi.IsNotFound(err) || isLegacyNotFound(err) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return res, nil
}

// isLegacyNotFound recognizes {"success": false, "error": "... not found"}
// answers, which legacy nodes send with HTTP 200.
func isLegacyNotFound(err error) bool {
	var ae *nodeapi.APIError
	if !errors.As(err, &ae) {
		return false
	}
	return containsFold(ae.Message, "not found")
}

// Wallet returns the account at address.
func (r *Reader) Wallet(ctx context.Context, address string) (*Wallet, error) {
	path, params := r.ep.Wallet(address)
	res, err := r.fetch(ctx, "wallet "+address, path, params)
	if err != nil {
		return nil, err
	}
	if r.legacy() {
		var body struct {
			Account *legacyWallet `json:"account"`
		}
		if err := res.Decode(&body); err != nil {
			return nil, err
		}
		if body.Account == nil {
			return nil, fmt.Errorf("wallet %s: %w", address, ErrNotFound)
		}
		return body.Account.normalize(), nil
	}
	var w modernWallet
	if err := res.Decode(&w); err != nil {
		return nil, err
	}
	return w.normalize(), nil
}

// Delegate returns the delegate with username, address or public key id.
func (r *Reader) Delegate(ctx context.Context, id string) (*Delegate, error) {
	path, params := r.ep.Delegate(id)
	res, err := r.fetch(ctx, "delegate "+id, path, params)
	if err != nil {
		return nil, err
	}
	if r.legacy() {
		var body struct {
			Delegate *legacyDelegate `json:"delegate"`
		}
		if err := res.Decode(&body); err != nil {
			return nil, err
		}
		if body.Delegate == nil {
			return nil, fmt.Errorf("delegate %s: %w", id, ErrNotFound)
		}
		return body.Delegate.normalize(), nil
	}
	var d modernDelegate
	if err := res.Decode(&d); err != nil {
		return nil, err
	}
	return d.normalize(), nil
}

// Votes returns the delegates address votes for. Modern nodes report the
// vote on the wallet itself; legacy nodes have a dedicated endpoint.
func (r *Reader) Votes(ctx context.Context, address string) ([]Delegate, error) {
	if !r.legacy() {
		w, err := r.Wallet(ctx, address)
		if err != nil {
			return nil, err
		}
		if w.Vote == "" {
			return nil, nil
		}
		d, err := r.Delegate(ctx, w.Vote)
		if err != nil {
			return nil, err
		}
		return []Delegate{*d}, nil
	}

	path, params := r.ep.Votes(address)
	res, err := r.fetch(ctx, "votes "+address, path, params)
	if err != nil {
		return nil, err
	}
	var body struct {
		Delegates []legacyDelegate `json:"delegates"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, err
	}
	out := make([]Delegate, 0, len(body.Delegates))
	for i := range body.Delegates {
		out = append(out, *body.Delegates[i].normalize())
	}
	return out, nil
}

// Transaction returns the confirmed transaction id.
func (r *Reader) Transaction(ctx context.Context, id string) (*Transaction, error) {
	path, params := r.ep.Transaction(id)
	res, err := r.fetch(ctx, "transaction "+id, path, params)
	if err != nil {
		return nil, err
	}
	if r.legacy() {
		var body struct {
			Transaction *legacyTransaction `json:"transaction"`
		}
		if err := res.Decode(&body); err != nil {
			return nil, err
		}
		if body.Transaction == nil {
			return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		return body.Transaction.normalize(), nil
	}
	var t modernTransaction
	if err := res.Decode(&t); err != nil {
		return nil, err
	}
	return t.normalize(), nil
}

// Status returns the sync state of the selected node.
func (r *Reader) Status(ctx context.Context) (*NodeStatus, error) {
	res, err := r.fetch(ctx, "node status", r.ep.NodeStatus, nil)
	if err != nil {
		return nil, err
	}
	if r.legacy() {
		var body struct {
			Syncing bool   `json:"syncing"`
			Height  Number `json:"height"`
			Blocks  Number `json:"blocks"`
		}
		if err := res.Decode(&body); err != nil {
			return nil, err
		}
		return &NodeStatus{Height: uint64(body.Height), Synced: !body.Syncing, Behind: uint64(body.Blocks)}, nil
	}
	var body struct {
		Synced      bool   `json:"synced"`
		Now         Number `json:"now"`
		BlocksCount Number `json:"blocksCount"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, err
	}
	return &NodeStatus{Height: uint64(body.Now), Synced: body.Synced, Behind: uint64(body.BlocksCount)}, nil
}
