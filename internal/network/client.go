// Package network implements peer discovery, server selection and request
// routing for ARK networks.
//
// A Client owns one Session. SetNetwork binds a network and loads its
// bootstrap peers; Connect additionally selects a server, runs a discovery
// pass and caches the node configuration. Reads go through GetFromNode,
// which moves to another peer when the current one stops answering.
package network

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/metrics"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// Options tunes discovery and failover.
type Options struct {
	Discovery       DiscoveryOptions
	BroadcastFanout int
	MaxFailover     int // 0 = one attempt per known peer
	ConnectAttempts int
	RequestAttempts int
	Quarantine      time.Duration
	BroadcastRate   float64 // posts per second, 0 = unpaced
}

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		Discovery:       DefaultDiscoveryOptions(),
		BroadcastFanout: config.DefaultBroadcastFanout,
		ConnectAttempts: config.DefaultConnectAttempts,
		RequestAttempts: config.DefaultRequestAttempts,
		Quarantine:      config.DefaultQuarantine,
	}
}

// OptionsFromConfig maps client configuration to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	d := cfg.Discovery
	return Options{
		Discovery: DiscoveryOptions{
			BatchSize:       d.BatchSize,
			ProbeTimeout:    d.ProbeTimeout,
			HeightTolerance: d.HeightTolerance,
			MaxCandidates:   d.MaxCandidates,
		},
		BroadcastFanout: d.BroadcastFanout,
		MaxFailover:     d.MaxFailover,
		ConnectAttempts: d.ConnectAttempts,
		RequestAttempts: d.RequestAttempts,
		Quarantine:      d.Quarantine,
		BroadcastRate:   d.BroadcastRate,
	}
}

// Resolver maps a network name to its definition.
type Resolver func(name string) (config.NetworkDefinition, error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithResolver replaces the built-in network registry lookup.
func WithResolver(r Resolver) ClientOption {
	return func(c *Client) { c.resolve = r }
}

// WithPeerCache persists discovered peers and falls back to them when a
// published peer list cannot be fetched.
func WithPeerCache(pc *PeerCache) ClientOption {
	return func(c *Client) { c.cache = pc }
}

// WithMetrics records discovery, failover and request metrics.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithProber replaces the HTTP discovery prober.
func WithProber(p Prober) ClientOption {
	return func(c *Client) { c.prober = p }
}

// WithChecker replaces the TCP reachability check used for failover.
// Checks are still bounded by the discovery probe timeout.
func WithChecker(ch Checker) ClientOption {
	return func(c *Client) { c.checker = ch }
}

// Client is the single entry point the rest of the application uses to
// talk to the network.
type Client struct {
	api     *nodeapi.Client
	opts    Options
	resolve Resolver
	cache   *PeerCache
	metrics *metrics.Metrics
	prober  Prober
	checker Checker
	pacer   *rate.Limiter

	session   *Session
	directory *Directory
	selector  *Selector
	logger    zerolog.Logger
}

// NewClient creates an unconfigured client.
func NewClient(api *nodeapi.Client, opts Options, options ...ClientOption) *Client {
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = config.DefaultConnectAttempts
	}
	if opts.RequestAttempts <= 0 {
		opts.RequestAttempts = config.DefaultRequestAttempts
	}
	if opts.BroadcastFanout <= 0 {
		opts.BroadcastFanout = config.DefaultBroadcastFanout
	}

	c := &Client{
		api:     api,
		opts:    opts,
		resolve: config.LookupNetwork,
		session: NewSession(),
		logger:  log.Network,
	}
	for _, o := range options {
		o(c)
	}
	if c.prober == nil {
		c.prober = NewHTTPProber(api)
	}
	if c.checker == nil {
		c.checker = api
	}
	// Failover checks use the short probe timeout, not the request timeout.
	checkTimeout := opts.Discovery.ProbeTimeout
	if checkTimeout <= 0 {
		checkTimeout = config.DefaultProbeTimeout
	}
	c.checker = timedChecker{Checker: c.checker, timeout: checkTimeout}
	if opts.BroadcastRate > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(opts.BroadcastRate), 1)
	}
	c.directory = NewDirectory(api, c.prober, opts.Discovery, c.cache, c.metrics)
	c.selector = NewSelector(c.checker, NewQuarantine(opts.Quarantine), opts.MaxFailover, c.metrics)
	return c
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// Selector returns the client's peer selector.
func (c *Client) Selector() *Selector {
	return c.selector
}

// Network returns the active network state, or nil.
func (c *Client) Network() *NetworkState {
	return c.session.Network()
}

// Peers returns the active network's ranked peers.
func (c *Client) Peers() []string {
	state := c.session.Network()
	if state == nil {
		return nil
	}
	return state.Peers()
}

// SetNetwork binds the session to the named network and loads its
// bootstrap peers. The session stays bound even when loading fails, so a
// later SetServer or Connect can retry; the error reports that the
// network is not yet usable.
func (c *Client) SetNetwork(ctx context.Context, name string) (*NetworkState, error) {
	def, err := c.resolve(name)
	if err != nil {
		return nil, &ConfigurationError{Network: name, Err: err}
	}
	if err := def.Validate(); err != nil {
		return nil, &ConfigurationError{Network: name, Err: err}
	}

	state := NewNetworkState(def)
	c.session.bind(state)

	if err := c.directory.LoadRemotePeers(ctx, state); err != nil {
		c.logger.Error().Err(err).Str("network", name).Msg("Failed to load peers")
		return nil, err
	}
	if state.Len() == 0 {
		return nil, &DiscoveryError{Network: name, Stage: "bootstrap", Err: ErrNoPeerAvailable}
	}
	c.logger.Info().Str("network", name).Int("peers", state.Len()).Msg("Network selected")
	return state, nil
}

// SetServer selects the server requests go to. An empty server picks a
// random peer; an explicit one is kept across failover and rebinding.
func (c *Client) SetServer(ctx context.Context, server string) (string, error) {
	state := c.session.Network()
	if state == nil {
		return "", ErrNoNetwork
	}
	if server == "" && state.Len() == 0 {
		if err := c.directory.LoadRemotePeers(ctx, state); err != nil {
			return "", err
		}
	}

	selected, err := c.selector.SelectServer(state, server)
	if err != nil {
		return "", err
	}
	if server != "" {
		// An explicit choice overrides earlier failures.
		c.selector.Quarantine().Release(selected)
	}
	c.session.setServer(selected, server != "")
	c.logger.Info().Str("server", selected).Msg("Server selected")
	return selected, nil
}

// Connect makes the session usable for the named network: network bound,
// responsive server selected, peers discovered and node configuration
// cached. It is a no-op when already connected to name with a responsive
// server. Failed attempts are retried up to ConnectAttempts times; an
// unknown network or a node on a different network fails immediately.
func (c *Client) Connect(ctx context.Context, name string) error {
	if c.session.connectedTo(name) {
		state := c.session.Network()
		server, err := c.selector.EnsureResponsive(ctx, state, c.session.Server())
		if err == nil {
			c.session.replaceServer(server)
			return nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.ConnectAttempts; attempt++ {
		err := c.connectOnce(ctx, name)
		if err == nil {
			return nil
		}
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) || errors.Is(err, ErrNetworkMismatch) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Str("network", name).Msg("Connect failed")
	}
	return &DiscoveryError{Network: name, Stage: "connect", Err: lastErr}
}

func (c *Client) connectOnce(ctx context.Context, name string) error {
	state := c.session.Network()
	// A pinned server is enough to connect through when bootstrap failed.
	if state == nil || state.Name() != name || (state.Len() == 0 && !c.session.Pinned()) {
		var err error
		if state, err = c.SetNetwork(ctx, name); err != nil {
			return err
		}
	}

	if c.session.Server() == "" {
		if _, err := c.SetServer(ctx, ""); err != nil {
			return err
		}
	}

	if !state.Discovered() {
		if _, err := c.FindAvailablePeers(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Peer discovery failed, keeping bootstrap peers")
		} else if !c.session.Pinned() && !state.Contains(c.session.Server()) {
			if _, err := c.SetServer(ctx, ""); err != nil {
				return err
			}
		}
	}

	nodeCfg, err := c.fetchNodeConfig(ctx)
	if err != nil {
		return err
	}
	state.setNodeConfig(nodeCfg)
	c.session.markConnected()
	c.logger.Info().Str("network", name).Str("server", c.session.Server()).Msg("Connected")
	return nil
}

// fetchNodeConfig reads the node configuration through the current server
// and checks that the node belongs to the bound network.
func (c *Client) fetchNodeConfig(ctx context.Context) (*NodeConfig, error) {
	state := c.session.Network()
	def := state.Definition()

	res, err := c.GetFromNode(ctx, nodeapi.EndpointsFor(def.Protocol).NodeConfig, nil, "")
	if err != nil {
		return nil, fmt.Errorf("read node configuration: %w", err)
	}
	nodeCfg, err := decodeNodeConfig(def.Protocol, res)
	if err != nil {
		return nil, fmt.Errorf("read node configuration: %w", err)
	}
	if nodeCfg.Nethash != def.Nethash {
		return nil, fmt.Errorf("%w: node reports nethash %s, %s expects %s",
			ErrNetworkMismatch, nodeCfg.Nethash, def.Name, def.Nethash)
	}
	return nodeCfg, nil
}

// NodeConfig returns the cached node configuration, fetching it when the
// session has none yet.
func (c *Client) NodeConfig(ctx context.Context) (*NodeConfig, error) {
	state := c.session.Network()
	if state == nil {
		return nil, ErrNoNetwork
	}
	if cfg := state.NodeConfig(); cfg != nil {
		return cfg, nil
	}
	cfg, err := c.fetchNodeConfig(ctx)
	if err != nil {
		return nil, err
	}
	state.setNodeConfig(cfg)
	return cfg, nil
}

// FindAvailablePeers runs a discovery pass using a responsive peer as the
// source. A source that fails is quarantined and another is tried, up to
// RequestAttempts sources.
func (c *Client) FindAvailablePeers(ctx context.Context) (int, error) {
	state := c.session.Network()
	if state == nil {
		return 0, ErrNoNetwork
	}

	source := c.session.Server()
	var lastErr error
	for attempt := 0; attempt < c.opts.RequestAttempts; attempt++ {
		responsive, err := c.selector.EnsureResponsive(ctx, state, source)
		if err != nil {
			if lastErr != nil {
				return 0, fmt.Errorf("%w (last source error: %v)", err, lastErr)
			}
			return 0, err
		}

		n, err := c.directory.FindAvailablePeers(ctx, state, responsive)
		var peerErr *PeerError
		if err == nil || !errors.As(err, &peerErr) {
			return n, err
		}
		lastErr = err
		c.quarantine(state.Name(), responsive, err)
		source = ""
	}
	return 0, &DiscoveryError{Network: state.Name(), Stage: "discovery", Err: lastErr}
}

// GetFromNode sends GET {path}?{params} to explicitPeer, or to the session
// server when explicitPeer is empty. Unreachable or timed-out peers are
// quarantined and the request moves to another peer, up to RequestAttempts
// peers in total. An error from a node that did answer is returned as is.
// On a legacy network a 404 is retried once on the alternate API port of
// the same host.
func (c *Client) GetFromNode(ctx context.Context, path string, params url.Values, explicitPeer string) (*nodeapi.Result, error) {
	state := c.session.Network()
	if state == nil {
		return nil, ErrNoNetwork
	}
	def := state.Definition()

	peer := explicitPeer
	if peer != "" {
		normalized, err := NormalizePeer(peer)
		if err != nil {
			return nil, err
		}
		peer = normalized
	} else {
		peer = c.session.Server()
	}

	tried := make(map[string]bool)
	var lastErr error
	for attempt := 0; attempt < c.opts.RequestAttempts; attempt++ {
		responsive, err := c.selector.EnsureResponsive(ctx, state, peer)
		if err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return nil, err
		}
		if explicitPeer == "" && responsive != c.session.Server() {
			c.session.replaceServer(responsive)
		}

		res, err := c.get(ctx, def, responsive, path, params)
		if err == nil {
			return res, nil
		}
		if !nodeapi.IsTransport(err) {
			return nil, err
		}

		lastErr = &PeerError{Peer: responsive, Err: err}
		tried[responsive] = true
		c.quarantine(state.Name(), responsive, err)
		c.logger.Warn().Err(err).Str("peer", responsive).Str("path", path).Msg("Request failed, trying another peer")

		next, ok := c.selector.randomPeer(state, tried)
		if !ok {
			break
		}
		c.metrics.RecordFailover()
		peer = next
	}
	return nil, fmt.Errorf("%w: %v", ErrNoPeerAvailable, lastErr)
}

// quarantine benches a failed peer and drops it from the peer cache, so
// a later bootstrap from the cache does not start with it.
func (c *Client) quarantine(network, peer string, err error) {
	c.selector.Quarantine().Add(peer, err.Error())
	c.metrics.RecordQuarantine()
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(network, peer); err != nil {
		c.logger.Debug().Err(err).Str("peer", peer).Msg("Failed to drop peer from cache")
	}
}

// get performs one GET with the legacy alternate-port retry.
func (c *Client) get(ctx context.Context, def config.NetworkDefinition, peer, path string, params url.Values) (*nodeapi.Result, error) {
	c.logger.Debug().Str("network", def.Name).Str("peer", peer).Str("path", path).Msg("Sending request")

	start := time.Now()
	res, err := c.api.Get(ctx, def, peer, path, params)
	c.metrics.RecordRequest("GET", err, time.Since(start))
	if err == nil || def.Protocol != config.ProtocolV1 || def.AltAPIPort == 0 || !nodeapi.IsNotFound(err) {
		return res, err
	}

	alt := WithPort(peer, def.AltAPIPort)
	if alt == peer {
		return res, err
	}
	c.logger.Debug().Str("peer", alt).Str("path", path).Msg("Not found, retrying on alternate port")
	start = time.Now()
	res, err = c.api.Get(ctx, def, alt, path, params)
	c.metrics.RecordRequest("GET", err, time.Since(start))
	return res, err
}

// PostTransaction submits tx to peer, or to the session server when peer
// is empty. Any failure, including a node that answered but did not accept
// the transaction, is returned as a *SubmissionError.
func (c *Client) PostTransaction(ctx context.Context, tx interface{}, peer string) (*TxReceipt, error) {
	state := c.session.Network()
	if state == nil {
		return nil, &SubmissionError{Err: ErrNoNetwork}
	}
	def := state.Definition()

	server := peer
	if server == "" {
		server = c.session.Server()
	}
	if server == "" {
		selected, err := c.SetServer(ctx, "")
		if err != nil {
			return nil, &SubmissionError{Err: err}
		}
		server = selected
	}

	body := map[string]interface{}{"transactions": []interface{}{tx}}
	start := time.Now()
	res, err := c.api.Post(ctx, def, server, nodeapi.EndpointsFor(def.Protocol).Transactions, body)
	c.metrics.RecordRequest("POST", err, time.Since(start))
	if err != nil {
		reason := ""
		var apiErr *nodeapi.APIError
		if errors.As(err, &apiErr) {
			reason = apiErr.Message
		}
		return nil, &SubmissionError{Peer: server, Reason: reason, Err: err}
	}

	receipt, err := decodeReceipt(def.Protocol, server, res)
	if err != nil {
		return nil, &SubmissionError{Peer: server, Reason: "malformed response", Err: err}
	}
	if !receipt.Accepted() {
		return receipt, &SubmissionError{Peer: server, TxID: receipt.rejectedID(), Reason: receipt.reason()}
	}
	return receipt, nil
}

// pace blocks until the next broadcast post may go out.
func (c *Client) pace(ctx context.Context) error {
	if c.pacer == nil {
		return ctx.Err()
	}
	return c.pacer.Wait(ctx)
}

// Submit posts tx to the session server and, once the server accepted it,
// relays it to the best BroadcastFanout other peers. A refusal by the
// server is returned as a *SubmissionError; relay failures are only logged.
// The returned count is the number of peers that accepted the relay.
func (c *Client) Submit(ctx context.Context, tx interface{}) (*TxReceipt, int, error) {
	receipt, err := c.PostTransaction(ctx, tx, "")
	if err != nil {
		return receipt, 0, err
	}

	relayed, err := c.broadcast(ctx, tx, receipt.Peer)
	switch {
	case errors.Is(err, ErrNoPeerAvailable):
		c.logger.Debug().Str("server", receipt.Peer).Msg("No other peers to relay to")
	case err != nil:
		c.logger.Warn().Err(err).Str("server", receipt.Peer).Msg("Relay failed")
	}
	return receipt, relayed, nil
}

// Broadcast posts tx to the best BroadcastFanout peers one after another
// and returns how many accepted it. Per-peer failures are logged. An error
// is returned only when no peer accepted.
func (c *Client) Broadcast(ctx context.Context, tx interface{}) (int, error) {
	return c.broadcast(ctx, tx, "")
}

func (c *Client) broadcast(ctx context.Context, tx interface{}, skip string) (int, error) {
	state := c.session.Network()
	if state == nil {
		return 0, &SubmissionError{Err: ErrNoNetwork}
	}
	var peers []string
	for _, p := range state.Peers() {
		if p != skip {
			peers = append(peers, p)
		}
	}
	if len(peers) > c.opts.BroadcastFanout {
		peers = peers[:c.opts.BroadcastFanout]
	}
	if len(peers) == 0 {
		return 0, &SubmissionError{Err: ErrNoPeerAvailable}
	}

	accepted, failed := 0, 0
	var lastErr error
	for _, p := range peers {
		if err := c.pace(ctx); err != nil {
			c.metrics.RecordBroadcast(accepted, failed)
			return accepted, err
		}
		c.logger.Info().Str("peer", p).Msg("Broadcasting")
		if _, err := c.PostTransaction(ctx, tx, p); err != nil {
			failed++
			lastErr = err
			c.logger.Warn().Err(err).Str("peer", p).Msg("Broadcast rejected")
			continue
		}
		accepted++
	}
	c.metrics.RecordBroadcast(accepted, failed)

	if accepted == 0 {
		return 0, lastErr
	}
	return accepted, nil
}
