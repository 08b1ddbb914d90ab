package network

import (
	"errors"
	"fmt"

	"github.com/ArkEcosystemArchive/ark-cli/config"
)

// Sentinel errors.
var (
	ErrUnknownNetwork  = config.ErrUnknownNetwork
	ErrNoNetwork       = errors.New("no network selected")
	ErrNoPeerAvailable = errors.New("no responsive peer available")
	ErrNetworkMismatch = errors.New("node belongs to a different network")
)

// ConfigurationError reports an unusable network selection: an unknown
// name or a malformed definition.
type ConfigurationError struct {
	Network string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("network %q: %v", e.Network, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DiscoveryError reports that no usable peer set could be established.
type DiscoveryError struct {
	Network string
	Stage   string // "bootstrap", "discovery" or "connect"
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Stage, e.Network, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// PeerError reports a failure of a single peer. It is transient: callers
// inside this package recover by moving to another peer.
type PeerError struct {
	Peer string
	Err  error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("peer %s: %v", e.Peer, e.Err)
}

func (e *PeerError) Unwrap() error { return e.Err }

// SubmissionError reports a transaction that was not accepted. Every
// write-path failure is surfaced as one.
type SubmissionError struct {
	Peer   string
	TxID   string
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	msg := "transaction rejected"
	if e.TxID != "" {
		msg = fmt.Sprintf("transaction %s rejected", e.TxID)
	}
	if e.Peer != "" {
		msg += " by " + e.Peer
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }
