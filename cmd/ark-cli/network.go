package main

import (
	"context"
	"strconv"

	"github.com/ArkEcosystemArchive/ark-cli/internal/chain"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/network"
)

// ── network ─────────────────────────────────────────────────────────────

func (c *cli) cmdNetwork(ctx context.Context, args []string) error {
	sub, rest, err := subcommand("network", args)
	if err != nil {
		return err
	}
	switch sub {
	case "stats":
		return c.cmdNetworkStats(ctx, rest)
	case "peers":
		return c.cmdNetworkPeers(ctx, rest)
	default:
		return usageError("unknown network subcommand %q", sub)
	}
}

type networkStats struct {
	Network     string                     `json:"network"`
	Nethash     string                     `json:"nethash"`
	Server      string                     `json:"server"`
	Pinned      bool                       `json:"pinned"`
	Peers       int                        `json:"peers"`
	CachedPeers int                        `json:"cachedPeers"`
	Quarantined []network.QuarantineRecord `json:"quarantined"`
	Status      *chain.NodeStatus          `json:"status,omitempty"`
	Config      *network.NodeConfig        `json:"config,omitempty"`
}

func (c *cli) cmdNetworkStats(ctx context.Context, args []string) error {
	fs := c.flagSet("network stats")
	withMetrics := fs.Bool("metrics", false, "Append discovery and request metrics")
	if err := parse(fs, args, 0, "network stats [--metrics]"); err != nil {
		return err
	}

	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	status, err := c.reader.Status(ctx)
	if err != nil {
		return err
	}

	session := client.Session()
	state := session.Network()
	quarantine := client.Selector().Quarantine()
	stats := networkStats{
		Network:     state.Name(),
		Nethash:     state.Definition().Nethash,
		Server:      session.Server(),
		Pinned:      session.Pinned(),
		Peers:       state.Len(),
		Quarantined: quarantine.List(),
		Status:      status,
		Config:      state.NodeConfig(),
	}
	if stats.Quarantined == nil {
		stats.Quarantined = []network.QuarantineRecord{}
	}
	if c.cache != nil {
		n, err := c.cache.Count(state.Name())
		if err != nil {
			log.Storage.Warn().Err(err).Msg("Failed to count cached peers")
		}
		stats.CachedPeers = n
	}

	synced := c.out.good.Sprint("yes")
	if !status.Synced {
		synced = c.out.bad.Sprintf("no, %d blocks behind", status.Behind)
	}
	server := stats.Server
	if stats.Pinned {
		server += " (pinned)"
	}
	fields := []field{
		{"Network", stats.Network},
		{"Nethash", stats.Nethash},
		{"Server", server},
		{"Peers", strconv.Itoa(stats.Peers)},
		{"Cached peers", strconv.Itoa(stats.CachedPeers)},
		{"Quarantined", strconv.Itoa(quarantine.Len())},
		{"Height", strconv.FormatUint(status.Height, 10)},
		{"Synced", synced},
	}
	if cfg := stats.Config; cfg != nil {
		fields = append(fields, field{"Token", cfg.Token + " (" + cfg.Symbol + ")"}, field{"Explorer", cfg.Explorer})
	}
	for _, rec := range stats.Quarantined {
		fields = append(fields, field{"  " + rec.Peer, c.out.faint.Sprintf("until %s: %s", rec.Until.Format("15:04:05"), rec.Reason)})
	}
	if err := c.out.result(stats, fields); err != nil {
		return err
	}

	if *withMetrics && !c.out.json {
		return c.metrics.WriteText(c.out.w)
	}
	return nil
}

func (c *cli) cmdNetworkPeers(ctx context.Context, args []string) error {
	fs := c.flagSet("network peers")
	refresh := fs.Bool("refresh", false, "Run a new discovery pass")
	if err := parse(fs, args, 0, "network peers [--refresh]"); err != nil {
		return err
	}

	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if *refresh || !client.Network().Discovered() {
		if _, err := client.FindAvailablePeers(ctx); err != nil {
			if client.Network().Len() == 0 {
				return err
			}
			log.Peers.Warn().Err(err).Msg("Discovery failed")
			c.out.hint("Discovery failed, listing known peers: %v", err)
		}
	}

	peers := client.Peers()
	server := client.Session().Server()
	rows := make([][]string, 0, len(peers))
	for i, p := range peers {
		mark := ""
		if p == server {
			mark = "*"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), p, mark})
	}
	return c.out.table(peers, []string{"#", "PEER", "SERVER"}, rows)
}
