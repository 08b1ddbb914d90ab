package network

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// NetworkState is the mutable view of the active network: its definition,
// the ranked peer list and the node configuration fetched from a server.
// It is safe for concurrent use.
type NetworkState struct {
	def config.NetworkDefinition

	mu         sync.RWMutex
	peers      []string
	discovered bool
	nodeConfig *NodeConfig
}

// NewNetworkState creates the state for def. A literal peer source seeds
// the peer list; unparsable entries are dropped.
func NewNetworkState(def config.NetworkDefinition) *NetworkState {
	s := &NetworkState{def: def}
	if !def.PeerSource.IsRemote() {
		peers := make([]string, 0, len(def.PeerSource.Peers))
		for _, p := range def.PeerSource.Peers {
			addr, err := NormalizePeer(p)
			if err != nil {
				log.Peers.Warn().Err(err).Str("network", def.Name).Msg("Ignoring peer entry")
				continue
			}
			peers = append(peers, addr)
		}
		s.peers = dedupe(peers)
	}
	return s
}

// Definition returns the immutable network definition.
func (s *NetworkState) Definition() config.NetworkDefinition {
	return s.def
}

// Name returns the network name.
func (s *NetworkState) Name() string {
	return s.def.Name
}

// Peers returns a copy of the ranked peer list.
func (s *NetworkState) Peers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.peers...)
}

// Len returns the number of known peers.
func (s *NetworkState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Contains reports whether peer is in the list.
func (s *NetworkState) Contains(peer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.peers {
		if p == peer {
			return true
		}
	}
	return false
}

// Discovered reports whether a discovery pass has installed the peer list.
func (s *NetworkState) Discovered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discovered
}

// setPeers replaces the peer list, keeping order and dropping repeats.
func (s *NetworkState) setPeers(peers []string, discovered bool) {
	list := dedupe(peers)
	s.mu.Lock()
	s.peers = list
	s.discovered = discovered
	s.mu.Unlock()
}

// NodeConfig returns the cached node configuration, or nil.
func (s *NetworkState) NodeConfig() *NodeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeConfig
}

func (s *NetworkState) setNodeConfig(cfg *NodeConfig) {
	s.mu.Lock()
	s.nodeConfig = cfg
	s.mu.Unlock()
}

// NodeConfig is the configuration a node reports about its network.
type NodeConfig struct {
	Nethash  string            `json:"nethash"`
	Token    string            `json:"token"`
	Symbol   string            `json:"symbol"`
	Explorer string            `json:"explorer"`
	Version  int               `json:"version"`
	Ports    map[string]int    `json:"ports,omitempty"`
	Fees     map[string]uint64 `json:"fees,omitempty"`
}

// Fee returns the static fee for a transaction type name such as
// "transfer", "vote" or "delegateRegistration".
func (c *NodeConfig) Fee(kind string) (uint64, bool) {
	if c == nil || c.Fees == nil {
		return 0, false
	}
	fee, ok := c.Fees[kind]
	return fee, ok
}

type modernNodeConfig struct {
	Nethash   string         `json:"nethash"`
	Token     string         `json:"token"`
	Symbol    string         `json:"symbol"`
	Explorer  string         `json:"explorer"`
	Version   int            `json:"version"`
	Ports     map[string]int `json:"ports"`
	Constants struct {
		Fees struct {
			StaticFees map[string]uint64 `json:"staticFees"`
		} `json:"fees"`
	} `json:"constants"`
}

type legacyNodeConfig struct {
	Network struct {
		Nethash  string `json:"nethash"`
		Token    string `json:"token"`
		Symbol   string `json:"symbol"`
		Explorer string `json:"explorer"`
		Version  int    `json:"version"`
	} `json:"network"`
}

// decodeNodeConfig reads the node configuration body of either generation.
func decodeNodeConfig(p config.Protocol, res *nodeapi.Result) (*NodeConfig, error) {
	if p == config.ProtocolV1 {
		var lc legacyNodeConfig
		if err := res.Decode(&lc); err != nil {
			return nil, err
		}
		if lc.Network.Nethash == "" {
			return nil, fmt.Errorf("node configuration has no nethash")
		}
		return &NodeConfig{
			Nethash:  lc.Network.Nethash,
			Token:    lc.Network.Token,
			Symbol:   lc.Network.Symbol,
			Explorer: lc.Network.Explorer,
			Version:  lc.Network.Version,
		}, nil
	}

	var mc modernNodeConfig
	if err := res.Decode(&mc); err != nil {
		return nil, err
	}
	if mc.Nethash == "" {
		return nil, fmt.Errorf("node configuration has no nethash")
	}
	return &NodeConfig{
		Nethash:  mc.Nethash,
		Token:    mc.Token,
		Symbol:   mc.Symbol,
		Explorer: mc.Explorer,
		Version:  mc.Version,
		Ports:    mc.Ports,
		Fees:     mc.Constants.Fees.StaticFees,
	}, nil
}

// MarshalJSON encodes the definition name, peers and node configuration.
func (s *NetworkState) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(struct {
		Name    string      `json:"name"`
		Nethash string      `json:"nethash"`
		Peers   []string    `json:"peers"`
		Config  *NodeConfig `json:"config,omitempty"`
	}{s.def.Name, s.def.Nethash, s.peers, s.nodeConfig})
}
