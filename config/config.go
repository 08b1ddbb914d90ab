// Package config handles ark-cli configuration.
//
// Configuration is split into two categories:
//   - Network definitions: the built-in registry in networks.go, immutable
//   - Client settings: runtime configuration from defaults, the .conf file
//     and command-line flags, in that order of precedence
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Output formats understood by the CLI.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds client runtime configuration.
type Config struct {
	// Core
	Network string   `conf:"network"`
	DataDir string   `conf:"datadir"`
	Node    string   `conf:"node"`  // explicit server, bypasses random selection
	Peers   []string `conf:"peers"` // overrides the network's peer source
	Format  string   `conf:"format"`

	// Peer discovery and failover
	Discovery DiscoveryConfig

	// Node HTTP API
	HTTP HTTPConfig

	// Fiat price lookup
	Price PriceConfig

	// Hardware signer
	Ledger LedgerConfig

	// Logging
	Log LogConfig

	// Not persisted in config file.
	Verbose bool
}

// DiscoveryConfig holds peer discovery, selection and failover settings.
type DiscoveryConfig struct {
	BatchSize       int           `conf:"discovery.batch"`
	ProbeTimeout    time.Duration `conf:"discovery.timeout"`
	HeightTolerance uint64        `conf:"discovery.tolerance"`
	MaxCandidates   int           `conf:"discovery.max"` // 0 = probe every candidate
	Cache           bool          `conf:"discovery.cache"`
	BroadcastFanout int           `conf:"broadcast.fanout"`
	BroadcastRate   float64       `conf:"broadcast.rate"` // posts per second, 0 = unpaced
	MaxFailover     int           `conf:"failover.max"` // 0 = one attempt per known peer
	ConnectAttempts int           `conf:"connect.attempts"`
	RequestAttempts int           `conf:"request.attempts"`
	Quarantine      time.Duration `conf:"failover.quarantine"`
}

// HTTPConfig holds node API client settings.
type HTTPConfig struct {
	Timeout time.Duration `conf:"http.timeout"`
}

// PriceConfig holds price collaborator settings.
type PriceConfig struct {
	Currency string `conf:"price.currency"`
	URL      string `conf:"price.url"`
}

// LedgerConfig holds hardware signer settings. Without a device transport
// the signer is backed by a BIP-39 mnemonic and BIP-32 derivation.
type LedgerConfig struct {
	Enabled  bool   `conf:"ledger.enabled"`
	Mnemonic string `conf:"ledger.mnemonic"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// NetworkDefinition resolves the configured network against the registry,
// applying the peer list override when one is set.
func (c *Config) NetworkDefinition() (NetworkDefinition, error) {
	def, err := LookupNetwork(c.Network)
	if err != nil {
		return NetworkDefinition{}, err
	}
	if len(c.Peers) > 0 {
		def = def.WithPeers(c.Peers)
	}
	return def, nil
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ark-cli
//	macOS:   ~/Library/Application Support/ark-cli
//	Windows: %APPDATA%\ark-cli
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ark-cli"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ark-cli")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "ark-cli")
		}
		return filepath.Join(home, "AppData", "Roaming", "ark-cli")
	default:
		return filepath.Join(home, ".ark-cli")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, c.Network)
}

// PeerCacheDir returns the peer cache database directory.
func (c *Config) PeerCacheDir() string {
	return filepath.Join(c.NetworkDataDir(), "peers")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ark-cli.conf")
}
