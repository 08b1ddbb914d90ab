package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// CoreAPIPlugin is the plugin name under which a node's /config reports
// its public API.
const CoreAPIPlugin = "@arkecosystem/core-api"

// errAPIDisabled is returned by a probe when the node does not serve its
// public API.
var errAPIDisabled = errors.New("public api disabled")

// Prober confirms a candidate serves the node API and returns the address
// requests should be sent to.
type Prober interface {
	Probe(ctx context.Context, def config.NetworkDefinition, c Candidate) (string, error)
}

// Checker is a lightweight reachability check.
type Checker interface {
	Reachable(ctx context.Context, peer string) error
}

// timedChecker bounds every check of the wrapped Checker by timeout.
type timedChecker struct {
	Checker
	timeout time.Duration
}

func (t timedChecker) Reachable(ctx context.Context, peer string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Checker.Reachable(ctx, peer)
}

// HTTPProber probes candidates over the node HTTP API.
type HTTPProber struct {
	api *nodeapi.Client
}

// NewHTTPProber creates a prober using api.
func NewHTTPProber(api *nodeapi.Client) *HTTPProber {
	return &HTTPProber{api: api}
}

// Probe implements Prober. When the network runs its public API as a
// separate plugin, the candidate's /config is read to find the API port,
// and that port must answer the status endpoint. Otherwise the candidate's
// own address must answer it.
func (p *HTTPProber) Probe(ctx context.Context, def config.NetworkDefinition, c Candidate) (string, error) {
	addr := c.Addr()
	if def.SeparateAPI {
		port, err := p.apiPort(ctx, def, addr)
		if err != nil {
			return "", err
		}
		addr = JoinHostPort(c.Host, port)
	}

	if _, err := p.api.Get(ctx, def, addr, nodeapi.EndpointsFor(def.Protocol).NodeStatus, nil); err != nil {
		return "", err
	}
	return addr, nil
}

type nodeAPIConfig struct {
	Plugins map[string]struct {
		Enabled bool `json:"enabled"`
		Port    int  `json:"port"`
	} `json:"plugins"`
}

// apiPort reads the public API port from GET /config.
func (p *HTTPProber) apiPort(ctx context.Context, def config.NetworkDefinition, addr string) (int, error) {
	res, err := p.api.Get(ctx, def, addr, "/config", nil)
	if err != nil {
		return 0, err
	}
	var cfg nodeAPIConfig
	if err := res.Decode(&cfg); err != nil {
		return 0, err
	}
	plugin, ok := cfg.Plugins[CoreAPIPlugin]
	if !ok || !plugin.Enabled {
		return 0, errAPIDisabled
	}
	if plugin.Port < 1 || plugin.Port > 65535 {
		return 0, fmt.Errorf("%w: invalid api port %d", nodeapi.ErrMalformedResponse, plugin.Port)
	}
	return plugin.Port, nil
}
