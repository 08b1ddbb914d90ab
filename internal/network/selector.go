package network

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
	"github.com/ArkEcosystemArchive/ark-cli/internal/metrics"
)

// Selector picks the peer each request goes to and replaces unresponsive
// ones. It reads the peer list but never modifies it.
type Selector struct {
	checker     Checker
	quarantine  *Quarantine
	maxFailover int
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSelector creates a Selector. maxFailover caps the peers tried by one
// EnsureResponsive call; zero allows one attempt per known peer.
func NewSelector(checker Checker, quarantine *Quarantine, maxFailover int, m *metrics.Metrics) *Selector {
	if quarantine == nil {
		quarantine = NewQuarantine(DefaultQuarantine)
	}
	return &Selector{
		checker:     checker,
		quarantine:  quarantine,
		maxFailover: maxFailover,
		metrics:     m,
		logger:      log.WithComponent("selector"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Quarantine returns the selector's quarantine.
func (s *Selector) Quarantine() *Quarantine {
	return s.quarantine
}

// SelectServer returns explicit, normalized, when given. Otherwise it
// picks a random peer from state, preferring peers not in quarantine.
func (s *Selector) SelectServer(state *NetworkState, explicit string) (string, error) {
	if explicit != "" {
		return NormalizePeer(explicit)
	}
	peer, ok := s.randomPeer(state, nil)
	if !ok {
		return "", ErrNoPeerAvailable
	}
	return peer, nil
}

// EnsureResponsive returns peer if it is reachable. Otherwise it tries
// random untried peers of state until one answers. Each call tries a peer
// at most once, so it terminates with ErrNoPeerAvailable when the peer set
// is exhausted or the failover budget is spent.
func (s *Selector) EnsureResponsive(ctx context.Context, state *NetworkState, peer string) (string, error) {
	limit := s.maxFailover
	if limit <= 0 {
		limit = state.Len() + 1
	}

	tried := make(map[string]bool)
	current := peer
	if current == "" {
		next, ok := s.randomPeer(state, tried)
		if !ok {
			return "", ErrNoPeerAvailable
		}
		current = next
	}

	for attempt := 1; ; attempt++ {
		err := s.checker.Reachable(ctx, current)
		if err == nil {
			return current, nil
		}

		tried[current] = true
		s.quarantine.Add(current, err.Error())
		s.metrics.RecordQuarantine()
		s.logger.Warn().Str("peer", current).Err(err).Msg("Peer is unresponsive, choosing another")

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt >= limit {
			return "", fmt.Errorf("%w: %d peers tried", ErrNoPeerAvailable, len(tried))
		}
		next, ok := s.randomPeer(state, tried)
		if !ok {
			return "", fmt.Errorf("%w: %d peers tried", ErrNoPeerAvailable, len(tried))
		}
		s.metrics.RecordFailover()
		current = next
	}
}

// randomPeer picks a uniformly random peer not in exclude, preferring
// peers not in quarantine.
func (s *Selector) randomPeer(state *NetworkState, exclude map[string]bool) (string, bool) {
	if state == nil {
		return "", false
	}
	var fresh, held []string
	for _, p := range state.Peers() {
		if exclude[p] {
			continue
		}
		if s.quarantine.IsQuarantined(p) {
			held = append(held, p)
		} else {
			fresh = append(fresh, p)
		}
	}

	pool := fresh
	if len(pool) == 0 {
		pool = held
	}
	if len(pool) == 0 {
		return "", false
	}

	s.rngMu.Lock()
	i := s.rng.Intn(len(pool))
	s.rngMu.Unlock()
	return pool[i], true
}
