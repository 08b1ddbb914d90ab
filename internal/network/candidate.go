package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

// Candidate is a peer reported by a node's peer list, before probing.
type Candidate struct {
	Host    string
	Port    int
	Height  uint64
	Version string
	Latency time.Duration
	Status  string
}

// Addr returns the candidate's host:port.
func (c Candidate) Addr() string {
	return JoinHostPort(c.Host, c.Port)
}

// rawPeer is one entry of /api/v2/peers or /peer/list. Field types vary
// between node releases, so numbers are kept raw and parsed leniently.
type rawPeer struct {
	IP      string          `json:"ip"`
	Port    json.RawMessage `json:"port"`
	Height  json.RawMessage `json:"height"`
	Version string          `json:"version"`
	Status  json.RawMessage `json:"status"`
	Latency json.RawMessage `json:"latency"`
	Delay   json.RawMessage `json:"delay"`
}

// decodePeerList extracts the peer entries from a peer list response.
// Modern bodies carry the array in "data"; legacy bodies in "peers".
func decodePeerList(res *nodeapi.Result) ([]rawPeer, error) {
	data := bytes.TrimSpace(res.Data)
	if len(data) == 0 {
		return nil, fmt.Errorf("peer list: %w", nodeapi.ErrMalformedResponse)
	}

	var list []rawPeer
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("peer list: %w: %v", nodeapi.ErrMalformedResponse, err)
		}
		return list, nil
	}

	var wrapped struct {
		Peers []rawPeer `json:"peers"`
		Data  []rawPeer `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("peer list: %w: %v", nodeapi.ErrMalformedResponse, err)
	}
	if wrapped.Peers != nil {
		return wrapped.Peers, nil
	}
	return wrapped.Data, nil
}

// Rejection reasons, also used as metric labels.
const (
	rejectStatus    = "status"
	rejectLocal     = "local"
	rejectAddress   = "address"
	rejectHeight    = "height"
	rejectDuplicate = "duplicate"
	rejectDeviation = "deviation"
)

// candidate validates a raw entry. It returns the rejection reason when
// the entry is structurally unusable.
func (r rawPeer) candidate() (Candidate, string) {
	if !statusOK(r.Status) {
		return Candidate{}, rejectStatus
	}
	host := strings.TrimSpace(r.IP)
	if host == "" {
		return Candidate{}, rejectAddress
	}
	if isLocalHost(host) {
		return Candidate{}, rejectLocal
	}
	port, ok := parseNumber(r.Port)
	if !ok || port < 1 || port > 65535 || port != math.Trunc(port) {
		return Candidate{}, rejectAddress
	}
	height, ok := parseNumber(r.Height)
	if !ok || height < 0 || height != math.Trunc(height) || height > math.MaxInt64 {
		return Candidate{}, rejectHeight
	}

	latency, ok := parseNumber(r.Latency)
	if !ok {
		latency, ok = parseNumber(r.Delay)
	}
	if !ok || latency < 0 {
		latency = math.MaxInt32
	}

	return Candidate{
		Host:    host,
		Port:    int(port),
		Height:  uint64(height),
		Version: strings.TrimSpace(r.Version),
		Latency: time.Duration(latency * float64(time.Millisecond)),
		Status:  "OK",
	}, ""
}

// statusOK accepts "OK", 200 and "200". A missing status is accepted;
// modern peer lists only include healthy peers and omit it.
func statusOK(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(s, "OK") || s == "200"
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == 200
	}
	return false
}

// parseNumber reads a finite JSON number, or a string holding one.
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
