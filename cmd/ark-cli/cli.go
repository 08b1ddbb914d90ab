package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/chain"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/metrics"
	"github.com/ArkEcosystemArchive/ark-cli/internal/network"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
	"github.com/ArkEcosystemArchive/ark-cli/internal/price"
	"github.com/ArkEcosystemArchive/ark-cli/internal/storage"
	"github.com/ArkEcosystemArchive/ark-cli/internal/wallet"
)

// errUsage marks command line mistakes; the usage text is printed with it.
var errUsage = errors.New("invalid usage")

func usageError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{errUsage}, args...)...)
}

// cli holds the collaborators of one invocation. Network access is set up
// on first use, so offline commands never touch the network.
type cli struct {
	cfg    *config.Config
	def    config.NetworkDefinition
	out    *printer
	stderr io.Writer
	prompt func(label string) (string, error)

	api     *nodeapi.Client
	metrics *metrics.Metrics
	db      storage.DB
	cache   *network.PeerCache
	client  *network.Client
	reader  *chain.Reader
	prices  price.Source
	signer  wallet.Signer
	ledger  wallet.HardwareSigner
}

func newCLI(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*cli, error) {
	def, err := cfg.NetworkDefinition()
	if err != nil {
		return nil, err
	}
	api := nodeapi.New(cfg.HTTP.Timeout)
	return &cli{
		cfg:     cfg,
		def:     def,
		out:     newPrinter(stdout, cfg.Format == config.FormatJSON),
		stderr:  stderr,
		prompt:  secretPrompt(stdin, stderr),
		api:     api,
		metrics: metrics.New(),
		prices:  price.NewCryptoCompare(api, cfg.Price.URL, price.DefaultCacheTTL),
		signer:  wallet.NewPassphraseSigner(def.Version),
		ledger:  wallet.NewHardwareSigner(cfg.Ledger, def.Slip44, def.Version),
	}, nil
}

func (c *cli) close() {
	c.api.CloseIdleConnections()
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Storage.Warn().Err(err).Msg("Failed to close peer cache")
		}
	}
}

// resolve serves the configured network with its peer override applied.
func (c *cli) resolve(name string) (config.NetworkDefinition, error) {
	if name == c.def.Name {
		return c.def, nil
	}
	return config.LookupNetwork(name)
}

// connect builds the network client and connects it to the configured
// network, honoring --node.
func (c *cli) connect(ctx context.Context) (*network.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	opts := []network.ClientOption{
		network.WithResolver(c.resolve),
		network.WithMetrics(c.metrics),
	}
	if c.cfg.Discovery.Cache {
		db, err := storage.NewBadger(c.cfg.PeerCacheDir())
		if err != nil {
			log.Storage.Warn().Err(err).Msg("Peer cache unavailable")
		} else {
			c.db = db
			c.cache = network.NewPeerCache(db, 0)
			if n, err := c.cache.PruneStale(c.cfg.Network); err != nil {
				log.Storage.Warn().Err(err).Msg("Failed to prune peer cache")
			} else if n > 0 {
				log.Storage.Debug().Int("pruned", n).Msg("Pruned stale peers")
			}
			opts = append(opts, network.WithPeerCache(c.cache))
		}
	}
	client := network.NewClient(c.api, network.OptionsFromConfig(c.cfg), opts...)

	if c.cfg.Node != "" {
		if _, err := client.SetNetwork(ctx, c.cfg.Network); err != nil {
			var discErr *network.DiscoveryError
			if !errors.As(err, &discErr) {
				return nil, err
			}
			log.Network.Warn().Err(err).Msg("No bootstrap peers, using --node only")
		}
		if _, err := client.SetServer(ctx, c.cfg.Node); err != nil {
			return nil, err
		}
	}
	if err := client.Connect(ctx, c.cfg.Network); err != nil {
		return nil, err
	}

	c.client = client
	c.reader = chain.NewReader(client, c.def.Protocol)
	return client, nil
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "network":
		return c.cmdNetwork(ctx, rest)
	case "wallet":
		return c.cmdWallet(ctx, rest)
	case "message":
		return c.cmdMessage(rest)
	case "transaction", "tx":
		return c.cmdTransaction(ctx, rest)
	case "help":
		config.PrintUsage(c.out.w)
		return nil
	default:
		return usageError("unknown command %q", cmd)
	}
}

// subcommand splits args into a subcommand name and its arguments.
func subcommand(group string, args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, usageError("%s: missing subcommand", group)
	}
	return args[0], args[1:], nil
}

// flagSet returns a flag set for one subcommand. Errors are returned, not
// fatal, and usage goes to stderr.
func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// parse parses args into fs and checks the positional argument count.
func parse(fs *flag.FlagSet, args []string, want int, usage string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usageError("%s", usage)
		}
		return usageError("%s: %v", fs.Name(), err)
	}
	if fs.NArg() != want {
		return usageError("usage: ark-cli %s", usage)
	}
	return nil
}
