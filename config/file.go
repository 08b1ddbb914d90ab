package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads client configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a client config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	// Core
	case "network":
		cfg.Network = strings.ToLower(value)
	case "datadir":
		cfg.DataDir = value
	case "node":
		cfg.Node = value
	case "peers":
		cfg.Peers = parseStringList(value)
	case "format":
		cfg.Format = strings.ToLower(value)

	// Discovery
	case "discovery.batch":
		cfg.Discovery.BatchSize, err = strconv.Atoi(value)
	case "discovery.timeout":
		cfg.Discovery.ProbeTimeout, err = time.ParseDuration(value)
	case "discovery.tolerance":
		cfg.Discovery.HeightTolerance, err = strconv.ParseUint(value, 10, 64)
	case "discovery.max":
		cfg.Discovery.MaxCandidates, err = strconv.Atoi(value)
	case "discovery.cache":
		cfg.Discovery.Cache = parseBool(value)
	case "broadcast.fanout":
		cfg.Discovery.BroadcastFanout, err = strconv.Atoi(value)
	case "broadcast.rate":
		cfg.Discovery.BroadcastRate, err = strconv.ParseFloat(value, 64)
	case "failover.max":
		cfg.Discovery.MaxFailover, err = strconv.Atoi(value)
	case "failover.quarantine":
		cfg.Discovery.Quarantine, err = time.ParseDuration(value)
	case "connect.attempts":
		cfg.Discovery.ConnectAttempts, err = strconv.Atoi(value)
	case "request.attempts":
		cfg.Discovery.RequestAttempts, err = strconv.Atoi(value)

	// HTTP
	case "http.timeout":
		cfg.HTTP.Timeout, err = time.ParseDuration(value)

	// Price
	case "price.currency":
		cfg.Price.Currency = strings.ToUpper(value)
	case "price.url":
		cfg.Price.URL = value

	// Ledger
	case "ledger.enabled", "ledger":
		cfg.Ledger.Enabled = parseBool(value)
	case "ledger.mnemonic":
		cfg.Ledger.Mnemonic = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return err
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default client configuration file.
func WriteDefaultConfig(path string, network string) error {
	content := `# ark-cli configuration
#
# Network definitions (nethash, address version, ports) are built in.
# This file only holds client settings.

# Network: mainnet or devnet
network = ` + network + `

# Data directory (default: ~/.ark-cli)
# datadir = ~/.ark-cli

# Always talk to this node instead of picking a random peer.
# Accepts host:port or a multiaddr such as /ip4/1.2.3.4/tcp/4003
# node =

# Replace the network's published peer list (comma-separated)
# peers = 1.2.3.4:4003,/dns4/node.example.com/tcp/4003

# Output format: table or json
format = table

# ============================================================================
# Peer discovery
# ============================================================================

# Peers probed concurrently per batch
discovery.batch = 20
# Per-peer probe timeout
discovery.timeout = 3s
# Accepted distance from the network's reference height
discovery.tolerance = 10
# Probe at most this many ranked candidates (0 = all)
# discovery.max = 0
# Remember responsive peers between runs
discovery.cache = true

# ============================================================================
# Failover
# ============================================================================

# Peers tried before giving up on a responsive server (0 = every known peer)
# failover.max = 0
# How long a failing peer is avoided
# failover.quarantine = 1m
connect.attempts = 3
request.attempts = 3
# Peers a signed transaction is posted to
broadcast.fanout = 20
# Posts per second while broadcasting (0 = as fast as peers answer)
# broadcast.rate = 0

http.timeout = 10s

# ============================================================================
# Price
# ============================================================================

price.currency = USD
# price.url = ` + DefaultPriceURL + `

# ============================================================================
# Ledger
# ============================================================================

# ledger.enabled = false

# ============================================================================
# Logging
# ============================================================================

log.level = error
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
