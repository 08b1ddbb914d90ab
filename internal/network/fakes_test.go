package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/config"
	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

const testNethash = "2a44f340d76ffc3df204c5f38cd355b7496c9065a1ade2ef92071436bd72e867"

// fakeNet routes virtual peer addresses to local test servers. Dialing an
// address without a server fails like a refused connection.
type fakeNet struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]string
	hits   map[string]*int32
}

func newFakeNet(t *testing.T) *fakeNet {
	return &fakeNet{t: t, routes: make(map[string]string), hits: make(map[string]*int32)}
}

func (n *fakeNet) serve(addr string, h http.Handler) {
	var hits int32
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(counted)
	n.t.Cleanup(srv.Close)

	n.mu.Lock()
	n.routes[addr] = strings.TrimPrefix(srv.URL, "http://")
	n.hits[addr] = &hits
	n.mu.Unlock()
}

func (n *fakeNet) hitCount(addr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if h, ok := n.hits[addr]; ok {
		return int(atomic.LoadInt32(h))
	}
	return 0
}

func (n *fakeNet) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	n.mu.Lock()
	real, ok := n.routes[addr]
	n.mu.Unlock()
	if !ok {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}
	var d net.Dialer
	return d.DialContext(ctx, network, real)
}

func (n *fakeNet) api(timeout time.Duration) *nodeapi.Client {
	return nodeapi.New(timeout, nodeapi.WithDialer(n))
}

// peerEntry is one row of a fake peer list.
type peerEntry struct {
	IP      string      `json:"ip"`
	Port    int         `json:"port"`
	Height  interface{} `json:"height"`
	Version string      `json:"version,omitempty"`
	Latency int         `json:"latency"`
	Status  interface{} `json:"status,omitempty"`
}

// fakeNode is a configurable modern node.
type fakeNode struct {
	height  uint64
	nethash string
	peers   []peerEntry
	apiPort int // /config plugin port; 0 disables the plugin
	// hang makes every request wait until the client gives up.
	hang bool
	// submit is the raw body returned for POST /api/v2/transactions.
	submit       string
	submitStatus int
	received     int32
}

func (f *fakeNode) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.hang {
				select {
				case <-r.Context().Done():
				case <-time.After(5 * time.Second):
				}
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("/api/v2/peers", wrap(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{"data": f.peers})
	}))
	mux.HandleFunc("/api/v2/node/status", wrap(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{"data": map[string]interface{}{"synced": true, "now": f.height}})
	}))
	mux.HandleFunc("/api/v2/node/configuration", wrap(func(w http.ResponseWriter, r *http.Request) {
		nethash := f.nethash
		if nethash == "" {
			nethash = testNethash
		}
		write(w, map[string]interface{}{"data": map[string]interface{}{
			"nethash": nethash, "token": "DARK", "symbol": "DѦ", "version": 30,
			"explorer": "https://dexplorer.ark.io",
			"constants": map[string]interface{}{"fees": map[string]interface{}{
				"staticFees": map[string]uint64{"transfer": 10000000, "vote": 100000000},
			}},
		}})
	}))
	mux.HandleFunc("/config", wrap(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{"data": map[string]interface{}{"plugins": map[string]interface{}{
			CoreAPIPlugin: map[string]interface{}{"enabled": f.apiPort != 0, "port": f.apiPort},
		}}})
	}))
	mux.HandleFunc("/api/v2/wallets/", wrap(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{"data": map[string]interface{}{"address": strings.TrimPrefix(r.URL.Path, "/api/v2/wallets/"), "balance": "100"}})
	}))
	mux.HandleFunc("/api/v2/transactions", wrap(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.received, 1)
		status := f.submitStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(f.submit))
	}))
	return mux
}

// testDefinition is a modern network over a literal peer list whose API
// runs on the reported port.
func testDefinition(peers ...string) config.NetworkDefinition {
	def, _ := config.LookupNetwork("devnet")
	def.Name = "testnet"
	def.SeparateAPI = false
	return def.WithPeers(peers)
}

func resolverFor(defs ...config.NetworkDefinition) Resolver {
	return func(name string) (config.NetworkDefinition, error) {
		for _, d := range defs {
			if d.Name == name {
				return d, nil
			}
		}
		return config.NetworkDefinition{}, fmt.Errorf("%w: %q", config.ErrUnknownNetwork, name)
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Discovery.ProbeTimeout = 500 * time.Millisecond
	return opts
}

// stubProber answers from a table of outcomes and optionally delays.
type stubProber struct {
	down  map[string]bool
	delay func(addr string) time.Duration
	calls int32
}

func (p *stubProber) Probe(ctx context.Context, def config.NetworkDefinition, c Candidate) (string, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay != nil {
		select {
		case <-time.After(p.delay(c.Addr())):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.down[c.Addr()] {
		return "", &nodeapi.TransportError{Peer: c.Addr(), Op: "GET", Err: errors.New("connection refused")}
	}
	return c.Addr(), nil
}

// stubChecker reports peers in down as unreachable and counts checks.
type stubChecker struct {
	mu     sync.Mutex
	down   map[string]bool
	checks []string
}

func (c *stubChecker) Reachable(ctx context.Context, peer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, peer)
	if c.down[peer] {
		return errors.New("connection refused")
	}
	return nil
}

func (c *stubChecker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.checks)
}
