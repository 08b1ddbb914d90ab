package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
)

// Protocol identifies the generation of the node HTTP API a network speaks.
type Protocol string

const (
	// ProtocolV1 is the legacy API: nethash/version/port headers,
	// {"success": ...} bodies, /peer/list and /peer/transactions.
	ProtocolV1 Protocol = "v1"
	// ProtocolV2 is the modern API: API-Version: 2 header, {"data": ...}
	// bodies, /api/v2/* endpoints.
	ProtocolV2 Protocol = "v2"
)

// ErrUnknownNetwork is returned when a network name is not in the registry.
var ErrUnknownNetwork = errors.New("unknown network")

// PeerSource is where a network's initial peers come from: either a URL
// serving a JSON array of {ip, port} entries, or a literal list of peers.
// Literal entries may be host:port or multiaddrs (/ip4/1.2.3.4/tcp/4003).
type PeerSource struct {
	URL   string
	Peers []string
}

// URLSource returns a remote peer source.
func URLSource(u string) PeerSource {
	return PeerSource{URL: u}
}

// ListSource returns a literal peer source.
func ListSource(peers ...string) PeerSource {
	return PeerSource{Peers: append([]string(nil), peers...)}
}

// IsRemote reports whether the peer list must be fetched from a URL.
func (s PeerSource) IsRemote() bool {
	return s.URL != ""
}

// NetworkDefinition is the static description of a named network.
// Definitions are created once and never mutated; use the With* helpers
// to derive a modified copy.
type NetworkDefinition struct {
	Name     string
	Nethash  string // hex network identifier
	Version  byte   // address version byte
	Slip44   uint32 // BIP-44 coin type
	Symbol   string
	Explorer string
	Protocol Protocol

	PeerSource PeerSource

	P2PPort int // port peers report in discovery lists
	APIPort int // well-known public API port
	// AltAPIPort is tried once for the same host when a legacy endpoint
	// answers 404. Zero disables the retry.
	AltAPIPort int
	// SeparateAPI is set when the public API runs as a plugin on its own
	// port, discoverable through GET /config on the p2p port.
	SeparateAPI bool
}

// Networks returns the built-in network registry.
func Networks() map[string]NetworkDefinition {
	return map[string]NetworkDefinition{
		"mainnet": {
			Name:        "mainnet",
			Nethash:     "6e84d08bd299ed97c212c886c98a57e36545c8f5d645ca7eeae63a8bd62d8988",
			Version:     0x17,
			Slip44:      111,
			Symbol:      "Ѧ",
			Explorer:    "https://explorer.ark.io",
			Protocol:    ProtocolV2,
			PeerSource:  URLSource("https://raw.githubusercontent.com/ArkEcosystem/peers/master/mainnet.json"),
			P2PPort:     4001,
			APIPort:     4003,
			AltAPIPort:  4001,
			SeparateAPI: true,
		},
		"devnet": {
			Name:        "devnet",
			Nethash:     "2a44f340d76ffc3df204c5f38cd355b7496c9065a1ade2ef92071436bd72e867",
			Version:     0x1e,
			Slip44:      1,
			Symbol:      "DѦ",
			Explorer:    "https://dexplorer.ark.io",
			Protocol:    ProtocolV2,
			PeerSource:  URLSource("https://raw.githubusercontent.com/ArkEcosystem/peers/master/devnet.json"),
			P2PPort:     4002,
			APIPort:     4003,
			AltAPIPort:  4002,
			SeparateAPI: true,
		},
	}
}

// NetworkNames returns the registry's network names in a stable order.
func NetworkNames() []string {
	return []string{"mainnet", "devnet"}
}

// LookupNetwork returns the definition registered under name.
func LookupNetwork(name string) (NetworkDefinition, error) {
	def, ok := Networks()[name]
	if !ok {
		return NetworkDefinition{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return def, nil
}

// WithPeers returns a copy of d whose peer source is the given literal list.
func (d NetworkDefinition) WithPeers(peers []string) NetworkDefinition {
	d.PeerSource = ListSource(peers...)
	return d
}

// Validate checks a definition for values that would make it unusable.
func (d NetworkDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("network name is empty")
	}
	b, err := hex.DecodeString(d.Nethash)
	if err != nil || len(b) != 32 {
		return fmt.Errorf("network %s: nethash must be 32-byte hex", d.Name)
	}
	if d.Protocol != ProtocolV1 && d.Protocol != ProtocolV2 {
		return fmt.Errorf("network %s: protocol must be %q or %q", d.Name, ProtocolV1, ProtocolV2)
	}
	for _, p := range []struct {
		name string
		port int
	}{{"p2p port", d.P2PPort}, {"api port", d.APIPort}, {"alternate api port", d.AltAPIPort}} {
		if p.port < 0 || p.port > 65535 {
			return fmt.Errorf("network %s: %s must be in range [0, 65535]", d.Name, p.name)
		}
	}
	if d.APIPort == 0 {
		return fmt.Errorf("network %s: api port is required", d.Name)
	}
	if d.PeerSource.IsRemote() {
		u, err := url.Parse(d.PeerSource.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("network %s: malformed peer source %q", d.Name, d.PeerSource.URL)
		}
	} else if len(d.PeerSource.Peers) == 0 {
		return fmt.Errorf("network %s: peer source is empty", d.Name)
	}
	return nil
}
