package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// ErrHelp is returned by ParseFlags when -h or --help was given.
var ErrHelp = flag.ErrHelp

// Flags holds parsed global command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string
	Node    string
	Peers   string
	Format  string
	NoCache bool
	Verbose bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args: the subcommand and its own flags.
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses global flags from args (without the program name).
// Parsing stops at the first non-flag argument, which starts the subcommand.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("ark-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network name (mainnet or devnet)")
	fs.StringVar(&f.Network, "n", "", "Network name (shorthand)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.StringVar(&f.Node, "node", "", "Use this node instead of a random peer")
	fs.StringVar(&f.Peers, "peers", "", "Comma-separated peer list replacing the network's")
	fs.StringVar(&f.Format, "format", "", "Output format (table or json)")
	fs.BoolVar(&f.NoCache, "no-cache", false, "Do not read or write the peer cache")
	fs.BoolVar(&f.Verbose, "verbose", false, "Log progress to stderr")
	fs.BoolVar(&f.Verbose, "v", false, "Log progress to stderr (shorthand)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error, off)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, ErrHelp
		}
		return nil, err
	}

	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = f.Network
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Node != "" {
		cfg.Node = f.Node
	}
	if f.Peers != "" {
		cfg.Peers = parseStringList(f.Peers)
	}
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.NoCache {
		cfg.Discovery.Cache = false
	}

	// Logging. --verbose raises the level unless one was given explicitly.
	cfg.Verbose = f.Verbose
	if f.Verbose {
		cfg.Log.Level = "info"
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the global usage text to w.
func PrintUsage(w io.Writer) {
	usage := `ark-cli - command line wallet for ARK networks

Usage:
  ark-cli [global options] <command> [command options] [args]

Commands:
  network stats [--metrics]     Show the selected network, server and height
  network peers [--refresh]     Discover and list responsive peers
  wallet create                 Generate a new passphrase and address
  wallet address                Print the address for a passphrase
  wallet status [--currency USD] <address>
                                Show balance, public key and votes
  wallet send <to> <amount>     Send ARK (--vendor text)
  wallet vote <delegate>        Vote for a delegate
  wallet unvote                 Remove the current vote
  wallet delegate <username>    Register as a delegate
  wallet second-passphrase      Register a second passphrase
  wallet ledger                 List hardware signer accounts
  message sign <message>        Sign a message with a passphrase
  message verify <msg> <sig> <publicKey>
                                Verify a signed message
  transaction status <id>       Look up a transaction

Signing Options (send, vote, unvote, delegate, second-passphrase):
  --fee           Fee in ARK instead of the node's static fee
  --second        Also sign with the second passphrase
  --ledger        Sign with this hardware account index

Global Options:
  --network, -n   Network: mainnet (default) or devnet
  --node          Use this node (host:port or multiaddr) instead of a random peer
  --peers         Comma-separated peers replacing the network's peer list
  --datadir       Data directory (default: ~/.ark-cli)
  --config, -c    Config file path (default: <datadir>/ark-cli.conf)
  --format        Output format: table (default) or json
  --no-cache      Do not read or write the peer cache
  --verbose, -v   Log progress to stderr
  --log-level     Log level: debug, info, warn, error, off (default: error)
  --log-file      Also write JSON logs to this file
  --log-json      Output logs as JSON
  --version       Show version information

Examples:
  ark-cli --network devnet network peers
  ark-cli wallet status AQvJHKCcTUJKBF9n7wxotE2LVxugG3rhjh
  ark-cli --node 1.2.3.4:4003 wallet send --fee 0.1 DEHXB5HdRjYSuH8PHtJ3H6vquViHFVRQak 1.5
`
	fmt.Fprint(w, usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Config file
// 3. Command-line flags
//
// The data directory is not created here; see EnsureDataDirs.
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, flags, err
	}

	cfg := Default(flags.Network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Idempotent.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
