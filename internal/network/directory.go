package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/metrics"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// DiscoveryOptions tunes a discovery pass.
type DiscoveryOptions struct {
	BatchSize       int
	ProbeTimeout    time.Duration
	HeightTolerance uint64
	MaxCandidates   int // 0 = probe every candidate
}

// DefaultDiscoveryOptions returns the default discovery settings.
func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		BatchSize:       config.DefaultBatchSize,
		ProbeTimeout:    config.DefaultProbeTimeout,
		HeightTolerance: config.DefaultHeightTolerance,
	}
}

// Directory builds and refreshes the ranked, reachable peer set of a
// network.
type Directory struct {
	api     *nodeapi.Client
	prober  Prober
	cache   *PeerCache
	metrics *metrics.Metrics
	opts    DiscoveryOptions
	logger  zerolog.Logger
}

// NewDirectory creates a Directory. cache and m may be nil.
func NewDirectory(api *nodeapi.Client, prober Prober, opts DiscoveryOptions, cache *PeerCache, m *metrics.Metrics) *Directory {
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = config.DefaultProbeTimeout
	}
	return &Directory{
		api:     api,
		prober:  prober,
		cache:   cache,
		metrics: m,
		opts:    opts,
		logger:  log.Peers,
	}
}

// remotePeer is one entry of a published peer list.
type remotePeer struct {
	IP string `json:"ip"`
}

// LoadRemotePeers installs the initial peer set of a network whose peer
// source is a URL. Each entry becomes ip:APIPort, since published lists
// carry p2p ports. A literal source is left alone.
//
// On failure the peer set is emptied and an error returned, unless the peer
// cache holds fresh peers for the network; those are installed instead.
func (d *Directory) LoadRemotePeers(ctx context.Context, state *NetworkState) error {
	def := state.Definition()
	if !def.PeerSource.IsRemote() {
		return nil
	}

	logger := log.WithNetwork(d.logger, def.Name).With().Str("source", def.PeerSource.URL).Logger()

	var list []remotePeer
	err := d.api.FetchJSON(ctx, def.PeerSource.URL, &list)
	var peers []string
	if err == nil {
		for _, p := range list {
			host := strings.TrimSpace(p.IP)
			if host == "" {
				continue
			}
			peers = append(peers, JoinHostPort(host, def.APIPort))
		}
		if len(peers) == 0 {
			err = fmt.Errorf("peer list is empty")
		}
	}

	if err != nil {
		state.setPeers(nil, false)
		if cached := d.cachedPeers(def.Name); len(cached) > 0 {
			logger.Warn().Err(err).Int("cached", len(cached)).Msg("Peer list unavailable, using cached peers")
			state.setPeers(cached, false)
			return nil
		}
		return &DiscoveryError{Network: def.Name, Stage: "bootstrap", Err: err}
	}

	state.setPeers(peers, false)
	logger.Info().Int("peers", state.Len()).Msg("Loaded remote peers")
	return nil
}

// FindAvailablePeers fetches the peer list of source, filters and ranks it,
// and probes the survivors in batches. The responsive peers replace the
// state's peer list, best first, and the count is returned. When no peer
// responds the list is left untouched and a DiscoveryError is returned.
func (d *Directory) FindAvailablePeers(ctx context.Context, state *NetworkState, source string) (int, error) {
	def := state.Definition()
	pass := uuid.NewString()[:8]
	logger := log.WithNetwork(d.logger, def.Name).With().Str("pass", pass).Logger()
	done := log.Benchmark("discovery " + pass)
	defer done()

	res, err := d.api.Get(ctx, def, source, nodeapi.EndpointsFor(def.Protocol).Peers, nil)
	if err != nil {
		return 0, &PeerError{Peer: source, Err: err}
	}
	raws, err := decodePeerList(res)
	if err != nil {
		return 0, &PeerError{Peer: source, Err: err}
	}

	filtered := filterCandidates(raws, d.opts.HeightTolerance)
	for reason, n := range filtered.Rejected {
		d.metrics.RecordRejected(reason, n)
	}
	candidates := filtered.Candidates
	if d.opts.MaxCandidates > 0 && len(candidates) > d.opts.MaxCandidates {
		candidates = candidates[:d.opts.MaxCandidates]
	}
	logger.Info().
		Str("source", source).
		Int("reported", len(raws)).
		Int("candidates", len(candidates)).
		Uint64("reference_height", filtered.Reference).
		Msg("Probing peers")

	responsive, err := d.probeAll(ctx, def, candidates)
	if err != nil {
		d.metrics.RecordDiscovery(0, err)
		return 0, err
	}
	if len(responsive) == 0 {
		err := &DiscoveryError{Network: def.Name, Stage: "discovery", Err: ErrNoPeerAvailable}
		d.metrics.RecordDiscovery(0, err)
		return 0, err
	}

	state.setPeers(responsive, true)
	d.metrics.RecordDiscovery(len(responsive), nil)
	logger.Info().Int("responsive", len(responsive)).Msg("Updated responsive peers")

	if d.cache != nil {
		if err := d.cache.Save(def.Name, responsive); err != nil {
			logger.Warn().Err(err).Msg("Failed to save peer cache")
		}
	}
	return len(responsive), nil
}

// probeAll probes candidates in batches of BatchSize. Probes within a
// batch run concurrently and the batch is joined before the next starts.
// Each result is written to the slot of its candidate, so the output keeps
// the candidates' rank order whatever order probes finish in.
func (d *Directory) probeAll(ctx context.Context, def config.NetworkDefinition, candidates []Candidate) ([]string, error) {
	slots := make([]string, len(candidates))

	for start := 0; start < len(candidates); start += d.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + d.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				slots[i] = d.probe(ctx, def, candidates[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]string, 0, len(slots))
	for _, addr := range slots {
		if addr != "" {
			out = append(out, addr)
		}
	}
	return dedupe(out), nil
}

// probe returns the API address of c, or "" when it did not respond.
func (d *Directory) probe(ctx context.Context, def config.NetworkDefinition, c Candidate) string {
	pctx, cancel := context.WithTimeout(ctx, d.opts.ProbeTimeout)
	defer cancel()

	start := time.Now()
	addr, err := d.prober.Probe(pctx, def, c)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		d.metrics.RecordProbe(metrics.ProbeOK, elapsed)
		d.logger.Debug().Str("peer", addr).Dur("latency", elapsed).Msg("Responsive peer added")
		return addr
	case errors.Is(err, errAPIDisabled):
		d.metrics.RecordProbe(metrics.ProbeAPIDisabled, elapsed)
	case nodeapi.IsTransport(err):
		d.metrics.RecordProbe(metrics.ProbeUnreachable, elapsed)
	default:
		d.metrics.RecordProbe(metrics.ProbeError, elapsed)
	}
	d.logger.Debug().Str("peer", c.Addr()).Err(err).Msg("Peer dropped")
	return ""
}

func (d *Directory) cachedPeers(network string) []string {
	if d.cache == nil {
		return nil
	}
	peers, err := d.cache.Load(network)
	if err != nil {
		d.logger.Warn().Err(err).Str("network", network).Msg("Failed to read peer cache")
		return nil
	}
	return peers
}
