// Package nodeapi provides an HTTP client for the public API of ARK nodes.
package nodeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/config"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// Dialer opens connections to peers. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Client is an HTTP client for node APIs. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	dialer  Dialer
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDialer routes every connection, including reachability checks,
// through d.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New creates a new client with the given per-request timeout.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		dialer:  &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         c.dialer.DialContext,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: timeout,
		},
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Get issues GET http://{peer}{path}?{params} with the network's protocol
// headers and decodes the body.
func (c *Client) Get(ctx context.Context, def config.NetworkDefinition, peer, path string, params url.Values) (*Result, error) {
	u := peerURL(peer, path, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = Headers(def)
	return c.do(req, peer)
}

// Post issues POST http://{peer}{path} with body encoded as JSON.
func (c *Client) Post(ctx context.Context, def config.NetworkDefinition, peer, path string, body interface{}) (*Result, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peerURL(peer, path, nil), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = Headers(def)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, peer)
}

// FetchJSON GETs an absolute URL and unmarshals the body into v. It is used
// for resources that are not node APIs, such as published peer lists.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Peer: req.URL.Host, Op: "GET", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &TransportError{Peer: req.URL.Host, Op: "read", Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "decode body", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

// Reachable opens and closes a TCP connection to peer.
func (c *Client) Reachable(ctx context.Context, peer string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", peer)
	if err != nil {
		return &TransportError{Peer: peer, Op: "dial", Err: err}
	}
	return conn.Close()
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

func (c *Client) do(req *http.Request, peer string) (*Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Peer: peer, Op: req.Method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Peer: peer, Op: "read", Err: err}
	}
	return DecodeResponse(resp.StatusCode, data)
}

func peerURL(peer, path string, params url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := "http://" + peer + path
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}
	return u
}
