package network

import (
	"sort"
	"sync"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
)

// DefaultQuarantine is how long a failing peer is avoided after its first
// failure. Repeated failures double the period, up to maxQuarantineShift
// doublings.
const (
	DefaultQuarantine  = time.Minute
	maxQuarantineShift = 4
)

// QuarantineRecord describes a quarantined peer.
type QuarantineRecord struct {
	Peer     string    `json:"peer"`
	Reason   string    `json:"reason"`
	Failures int       `json:"failures"`
	Since    time.Time `json:"since"`
	Until    time.Time `json:"until"`
}

// IsExpired reports whether the quarantine has ended at now.
func (r *QuarantineRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.Until)
}

// Quarantine tracks peers that recently failed a probe or request.
// Random server selection avoids them while alternatives exist.
type Quarantine struct {
	mu       sync.RWMutex
	records  map[string]*QuarantineRecord
	duration time.Duration
	now      func() time.Time
}

// NewQuarantine creates a Quarantine. A non-positive duration selects
// DefaultQuarantine.
func NewQuarantine(duration time.Duration) *Quarantine {
	if duration <= 0 {
		duration = DefaultQuarantine
	}
	return &Quarantine{
		records:  make(map[string]*QuarantineRecord),
		duration: duration,
		now:      time.Now,
	}
}

// Add records a failure of peer.
func (q *Quarantine) Add(peer, reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	rec, ok := q.records[peer]
	if !ok || rec.IsExpired(now) {
		rec = &QuarantineRecord{Peer: peer, Since: now}
		q.records[peer] = rec
	}
	rec.Failures++
	rec.Reason = reason

	shift := rec.Failures - 1
	if shift > maxQuarantineShift {
		shift = maxQuarantineShift
	}
	rec.Until = now.Add(q.duration << uint(shift))

	log.Peers.Debug().
		Str("peer", peer).
		Str("reason", reason).
		Int("failures", rec.Failures).
		Time("until", rec.Until).
		Msg("Peer quarantined")
}

// IsQuarantined returns true if peer is currently quarantined.
func (q *Quarantine) IsQuarantined(peer string) bool {
	q.mu.RLock()
	rec, ok := q.records[peer]
	q.mu.RUnlock()

	if !ok {
		return false
	}
	if rec.IsExpired(q.now()) {
		q.mu.Lock()
		if cur, ok := q.records[peer]; ok && cur.IsExpired(q.now()) {
			delete(q.records, peer)
		}
		q.mu.Unlock()
		return false
	}
	return true
}

// Release removes peer from quarantine.
func (q *Quarantine) Release(peer string) {
	q.mu.Lock()
	delete(q.records, peer)
	q.mu.Unlock()
}

// List returns a snapshot of active quarantines ordered by peer.
func (q *Quarantine) List() []QuarantineRecord {
	q.mu.RLock()
	defer q.mu.RUnlock()

	now := q.now()
	var list []QuarantineRecord
	for _, rec := range q.records {
		if !rec.IsExpired(now) {
			list = append(list, *rec)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Peer < list[j].Peer })
	return list
}

// Len returns the number of active quarantines.
func (q *Quarantine) Len() int {
	return len(q.List())
}
