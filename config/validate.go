package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/multiformats/go-multiaddr"

	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
)

// Validate checks runtime client config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := LookupNetwork(cfg.Network); err != nil {
		return fmt.Errorf("network must be one of %v: %w", NetworkNames(), err)
	}
	if cfg.Format != FormatTable && cfg.Format != FormatJSON {
		return fmt.Errorf("format must be %q or %q", FormatTable, FormatJSON)
	}
	if cfg.Node != "" {
		if err := validatePeerAddr(cfg.Node); err != nil {
			return fmt.Errorf("node: %w", err)
		}
	}
	for i, p := range cfg.Peers {
		if err := validatePeerAddr(p); err != nil {
			return fmt.Errorf("peers[%d]: %w", i, err)
		}
	}

	d := cfg.Discovery
	if d.BatchSize <= 0 {
		return fmt.Errorf("discovery.batch must be positive")
	}
	if d.ProbeTimeout <= 0 {
		return fmt.Errorf("discovery.timeout must be positive")
	}
	if d.MaxCandidates < 0 {
		return fmt.Errorf("discovery.max must not be negative")
	}
	if d.BroadcastFanout <= 0 {
		return fmt.Errorf("broadcast.fanout must be positive")
	}
	if d.BroadcastRate < 0 {
		return fmt.Errorf("broadcast.rate must not be negative")
	}
	if d.MaxFailover < 0 {
		return fmt.Errorf("failover.max must not be negative")
	}
	if d.Quarantine < 0 {
		return fmt.Errorf("failover.quarantine must not be negative")
	}
	if d.ConnectAttempts <= 0 {
		return fmt.Errorf("connect.attempts must be positive")
	}
	if d.RequestAttempts <= 0 {
		return fmt.Errorf("request.attempts must be positive")
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if len(cfg.Price.Currency) != 3 {
		return fmt.Errorf("price.currency must be a 3-letter code")
	}
	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error, off", cfg.Log.Level)
	}
	return nil
}

// validatePeerAddr accepts host:port or a multiaddr with a tcp component.
func validatePeerAddr(addr string) error {
	if strings.HasPrefix(addr, "/") {
		m, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return fmt.Errorf("invalid multiaddr %q: %w", addr, err)
		}
		if _, err := m.ValueForProtocol(multiaddr.P_TCP); err != nil {
			return fmt.Errorf("multiaddr %q has no tcp port", addr)
		}
		return nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid address %q: host and port are required", addr)
	}
	return nil
}
