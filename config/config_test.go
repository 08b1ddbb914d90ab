package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	for _, name := range NetworkNames() {
		cfg := Default(name)
		if cfg.Network != name {
			t.Errorf("Default(%s).Network = %q", name, cfg.Network)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("Default(%s) invalid: %v", name, err)
		}
	}
	if Default("").Network != "mainnet" {
		t.Error("empty network should default to mainnet")
	}
}

func TestDefault_DiscoveryValues(t *testing.T) {
	d := DefaultMainnet().Discovery
	if d.BatchSize != 20 {
		t.Errorf("BatchSize = %d, want 20", d.BatchSize)
	}
	if d.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", d.ProbeTimeout)
	}
	if d.HeightTolerance != 10 {
		t.Errorf("HeightTolerance = %d, want 10", d.HeightTolerance)
	}
	if d.BroadcastFanout != 20 {
		t.Errorf("BroadcastFanout = %d, want 20", d.BroadcastFanout)
	}
}

func TestValidate_UnknownNetwork(t *testing.T) {
	cfg := Default("noNetwork")
	err := Validate(cfg)
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("error = %v, want ErrUnknownNetwork", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"format", func(c *Config) { c.Format = "xml" }},
		{"node without port", func(c *Config) { c.Node = "1.2.3.4" }},
		{"bad multiaddr", func(c *Config) { c.Node = "/ip4/not-an-ip/tcp/4003" }},
		{"multiaddr without tcp", func(c *Config) { c.Node = "/ip4/1.2.3.4" }},
		{"peer entry", func(c *Config) { c.Peers = []string{"1.2.3.4:4003", "nope"} }},
		{"batch", func(c *Config) { c.Discovery.BatchSize = 0 }},
		{"timeout", func(c *Config) { c.Discovery.ProbeTimeout = 0 }},
		{"max", func(c *Config) { c.Discovery.MaxCandidates = -1 }},
		{"fanout", func(c *Config) { c.Discovery.BroadcastFanout = 0 }},
		{"failover", func(c *Config) { c.Discovery.MaxFailover = -1 }},
		{"quarantine", func(c *Config) { c.Discovery.Quarantine = -time.Second }},
		{"rate", func(c *Config) { c.Discovery.BroadcastRate = -1 }},
		{"connect", func(c *Config) { c.Discovery.ConnectAttempts = 0 }},
		{"request", func(c *Config) { c.Discovery.RequestAttempts = 0 }},
		{"http", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"currency", func(c *Config) { c.Price.Currency = "DOLLAR" }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDevnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_AcceptsPeerForms(t *testing.T) {
	cfg := DefaultDevnet()
	cfg.Node = "/dns4/node.example.com/tcp/4003"
	cfg.Peers = []string{"1.2.3.4:4003", "/ip4/5.6.7.8/tcp/4003", "[::1]:4003"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ark-cli.conf")
	content := `# comment
network = devnet
peers = "1.2.3.4:4003, 5.6.7.8:4003"

discovery.timeout = 500ms
discovery.tolerance = 5
failover.max = 4
failover.quarantine = 30s
broadcast.rate = 2.5
price.currency = eur
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.Network != "devnet" {
		t.Errorf("Network = %q", cfg.Network)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[1] != "5.6.7.8:4003" {
		t.Errorf("Peers = %v", cfg.Peers)
	}
	if cfg.Discovery.ProbeTimeout != 500*time.Millisecond {
		t.Errorf("ProbeTimeout = %v", cfg.Discovery.ProbeTimeout)
	}
	if cfg.Discovery.HeightTolerance != 5 {
		t.Errorf("HeightTolerance = %d", cfg.Discovery.HeightTolerance)
	}
	if cfg.Discovery.MaxFailover != 4 {
		t.Errorf("MaxFailover = %d", cfg.Discovery.MaxFailover)
	}
	if cfg.Discovery.Quarantine != 30*time.Second {
		t.Errorf("Quarantine = %v", cfg.Discovery.Quarantine)
	}
	if cfg.Discovery.BroadcastRate != 2.5 {
		t.Errorf("BroadcastRate = %v", cfg.Discovery.BroadcastRate)
	}
	if cfg.Price.Currency != "EUR" {
		t.Errorf("Currency = %q", cfg.Price.Currency)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("network devnet\n"), 0600)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for line without '='")
	}
}

func TestApplyFileConfig_BadNumber(t *testing.T) {
	cfg := DefaultMainnet()
	err := ApplyFileConfig(cfg, map[string]string{"discovery.batch": "many"})
	if err == nil || !strings.Contains(err.Error(), "discovery.batch") {
		t.Fatalf("error = %v, want one naming the key", err)
	}
}

func TestParseFlags_StopsAtCommand(t *testing.T) {
	f, err := ParseFlags([]string{"--network", "devnet", "-v", "wallet", "status", "--currency", "EUR"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f.Network != "devnet" || !f.Verbose {
		t.Errorf("flags = %+v", f)
	}
	want := []string{"wallet", "status", "--currency", "EUR"}
	if strings.Join(f.Args, " ") != strings.Join(want, " ") {
		t.Errorf("Args = %v, want %v", f.Args, want)
	}
}

func TestParseFlags_Help(t *testing.T) {
	f, err := ParseFlags([]string{"-h"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("error = %v, want ErrHelp", err)
	}
	if !f.Help {
		t.Error("Help should be set")
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := ParseFlags([]string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestApplyFlags_Precedence(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Log.Level = "warn"

	ApplyFlags(cfg, &Flags{Verbose: true, NoCache: true, Peers: "1.1.1.1:4003"})
	if cfg.Log.Level != "info" {
		t.Errorf("verbose level = %q, want info", cfg.Log.Level)
	}
	if cfg.Discovery.Cache {
		t.Error("--no-cache should disable the cache")
	}
	if len(cfg.Peers) != 1 {
		t.Errorf("Peers = %v", cfg.Peers)
	}

	ApplyFlags(cfg, &Flags{Verbose: true, LogLevel: "debug"})
	if cfg.Log.Level != "debug" {
		t.Errorf("explicit level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "ark-cli.conf"), []byte("format = json\nnode = 9.9.9.9:4003\n"), 0600)

	cfg, flags, err := Load([]string{"--datadir", dir, "--network", "devnet", "network", "peers"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != "devnet" || cfg.Format != FormatJSON || cfg.Node != "9.9.9.9:4003" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(flags.Args) != 2 || flags.Args[0] != "network" {
		t.Errorf("Args = %v", flags.Args)
	}
}

func TestLoad_InvalidNetwork(t *testing.T) {
	_, _, err := Load([]string{"--datadir", t.TempDir(), "--network", "noNetwork"})
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("error = %v, want ErrUnknownNetwork", err)
	}
}

func TestEnsureDataDirs(t *testing.T) {
	cfg := DefaultDevnet()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}
	if _, err := os.Stat(cfg.NetworkDataDir()); err != nil {
		t.Errorf("network dir missing: %v", err)
	}

	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["network"] != "devnet" {
		t.Errorf("default config network = %q", values["network"])
	}
	fresh := DefaultMainnet()
	if err := ApplyFileConfig(fresh, values); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}
	if err := Validate(fresh); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	// Idempotent.
	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("second EnsureDataDirs: %v", err)
	}
}

func TestConfig_NetworkDefinition(t *testing.T) {
	cfg := DefaultDevnet()
	def, err := cfg.NetworkDefinition()
	if err != nil {
		t.Fatal(err)
	}
	if !def.PeerSource.IsRemote() {
		t.Error("devnet should use its remote peer list")
	}

	cfg.Peers = []string{"1.2.3.4:4003"}
	def, _ = cfg.NetworkDefinition()
	if def.PeerSource.IsRemote() || def.PeerSource.Peers[0] != "1.2.3.4:4003" {
		t.Errorf("override not applied: %+v", def.PeerSource)
	}
}
