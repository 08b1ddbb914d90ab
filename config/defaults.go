package config

import "time"

// Discovery and failover defaults.
const (
	DefaultBatchSize       = 20
	DefaultProbeTimeout    = 3 * time.Second
	DefaultHeightTolerance = 10
	DefaultBroadcastFanout = 20
	DefaultConnectAttempts = 3
	DefaultRequestAttempts = 3
	DefaultQuarantine      = time.Minute
	DefaultHTTPTimeout     = 10 * time.Second
)

// DefaultPriceURL is the CryptoCompare single-price endpoint.
const DefaultPriceURL = "https://min-api.cryptocompare.com/data/price"

// DefaultMainnet returns the default client configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: "mainnet",
		DataDir: DefaultDataDir(),
		Format:  FormatTable,
		Discovery: DiscoveryConfig{
			BatchSize:       DefaultBatchSize,
			ProbeTimeout:    DefaultProbeTimeout,
			HeightTolerance: DefaultHeightTolerance,
			Cache:           true,
			BroadcastFanout: DefaultBroadcastFanout,
			ConnectAttempts: DefaultConnectAttempts,
			RequestAttempts: DefaultRequestAttempts,
			Quarantine:      DefaultQuarantine,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Price: PriceConfig{
			Currency: "USD",
			URL:      DefaultPriceURL,
		},
		Log: LogConfig{
			Level: "error",
		},
	}
}

// DefaultDevnet returns the default client configuration for devnet.
func DefaultDevnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = "devnet"
	return cfg
}

// Default returns the default client configuration for the given network.
// Unknown names keep the name so Validate can report them.
func Default(network string) *Config {
	switch network {
	case "", "mainnet":
		return DefaultMainnet()
	case "devnet":
		return DefaultDevnet()
	default:
		cfg := DefaultMainnet()
		cfg.Network = network
		return cfg
	}
}
