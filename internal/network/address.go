package network

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/multiformats/go-multiaddr"
)

// NormalizePeer converts a peer address to canonical host:port form.
// Accepted forms: host:port, [v6]:port, http://host:port and multiaddrs
// with an ip4, ip6, dns, dns4 or dns6 component followed by tcp.
func NormalizePeer(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("empty peer address")
	}
	if strings.HasPrefix(addr, "/") {
		return fromMultiaddr(addr)
	}
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimSuffix(addr, "/")

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid peer address %q: %w", addr, err)
	}
	p, err := parsePort(port)
	if err != nil {
		return "", fmt.Errorf("invalid peer address %q: %w", addr, err)
	}
	if host == "" {
		return "", fmt.Errorf("invalid peer address %q: missing host", addr)
	}
	return JoinHostPort(host, p), nil
}

// JoinHostPort formats host and port as an address.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitPeer splits a canonical peer address.
func SplitPeer(peer string) (string, int, error) {
	host, port, err := net.SplitHostPort(peer)
	if err != nil {
		return "", 0, err
	}
	p, err := parsePort(port)
	if err != nil {
		return "", 0, err
	}
	return host, p, nil
}

// WithPort returns peer with its port replaced.
func WithPort(peer string, port int) string {
	host, _, err := net.SplitHostPort(peer)
	if err != nil {
		return peer
	}
	return JoinHostPort(host, port)
}

func fromMultiaddr(s string) (string, error) {
	m, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		return "", fmt.Errorf("invalid multiaddr %q: %w", s, err)
	}

	var host string
	for _, code := range []int{multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS, multiaddr.P_DNS4, multiaddr.P_DNS6} {
		if v, err := m.ValueForProtocol(code); err == nil {
			host = v
			break
		}
	}
	if host == "" {
		return "", fmt.Errorf("multiaddr %q has no host component", s)
	}

	port, err := m.ValueForProtocol(multiaddr.P_TCP)
	if err != nil {
		return "", fmt.Errorf("multiaddr %q has no tcp port", s)
	}
	p, err := parsePort(port)
	if err != nil {
		return "", fmt.Errorf("multiaddr %q: %w", s, err)
	}
	return JoinHostPort(host, p), nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %q out of range", s)
	}
	return p, nil
}

// isLocalHost reports whether host is a loopback or unspecified IP, or
// "localhost". Such peers are only meaningful to the node that reported
// them.
func isLocalHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsUnspecified()
}

// dedupe returns peers in order with repeats removed.
func dedupe(peers []string) []string {
	seen := make(map[string]struct{}, len(peers))
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
