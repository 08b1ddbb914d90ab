package network

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/internal/storage"
)

const (
	peerKeyPrefix     = "peer/"
	maxPersistedPeers = 500
	// DefaultPeerCacheAge is how long cached peers are trusted.
	DefaultPeerCacheAge = 24 * time.Hour
)

// PeerRecord is a persisted responsive peer.
type PeerRecord struct {
	Addr     string `json:"addr"`
	Rank     int    `json:"rank"`      // position in the discovered list
	LastSeen int64  `json:"last_seen"` // unix timestamp
}

// PeerCache persists the responsive peers of each network in a
// storage.DB, one namespace per network.
type PeerCache struct {
	db     storage.DB
	maxAge time.Duration
	now    func() time.Time
}

// NewPeerCache creates a new PeerCache backed by db. Records older than
// maxAge are ignored and pruned; zero selects DefaultPeerCacheAge.
func NewPeerCache(db storage.DB, maxAge time.Duration) *PeerCache {
	if maxAge <= 0 {
		maxAge = DefaultPeerCacheAge
	}
	return &PeerCache{db: db, maxAge: maxAge, now: time.Now}
}

func (pc *PeerCache) namespace(network string) *storage.PrefixDB {
	return storage.NewPrefixDB(pc.db, []byte("net/"+network+"/"))
}

func peerKey(addr string) []byte {
	return []byte(peerKeyPrefix + addr)
}

// Save replaces the cached peers of network with peers, in order. At most
// maxPersistedPeers are kept.
func (pc *PeerCache) Save(network string, peers []string) error {
	if len(peers) > maxPersistedPeers {
		peers = peers[:maxPersistedPeers]
	}
	now := pc.now().Unix()
	entries := make([]storage.Entry, 0, len(peers))
	for i, addr := range peers {
		data, err := json.Marshal(PeerRecord{Addr: addr, Rank: i, LastSeen: now})
		if err != nil {
			return fmt.Errorf("marshal peer record: %w", err)
		}
		entries = append(entries, storage.Entry{Key: peerKey(addr), Value: data})
	}

	ns := pc.namespace(network)
	if err := ns.DeletePrefix([]byte(peerKeyPrefix)); err != nil {
		return fmt.Errorf("clear peer cache: %w", err)
	}
	if err := ns.PutAll(entries); err != nil {
		return fmt.Errorf("save peers: %w", err)
	}
	return nil
}

// LoadAll returns all fresh records of network, best ranked first.
func (pc *PeerCache) LoadAll(network string) ([]PeerRecord, error) {
	cutoff := pc.now().Add(-pc.maxAge).Unix()
	var records []PeerRecord
	err := pc.namespace(network).ForEach([]byte(peerKeyPrefix), func(key, value []byte) error {
		var rec PeerRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil // Skip corrupt records.
		}
		if rec.LastSeen < cutoff || rec.Addr == "" {
			return nil
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate peer records: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Rank != records[j].Rank {
			return records[i].Rank < records[j].Rank
		}
		return records[i].Addr < records[j].Addr
	})
	return records, nil
}

// Load returns the fresh cached peer addresses of network, best first.
func (pc *PeerCache) Load(network string) ([]string, error) {
	records, err := pc.LoadAll(network)
	if err != nil {
		return nil, err
	}
	peers := make([]string, 0, len(records))
	for _, rec := range records {
		peers = append(peers, rec.Addr)
	}
	return peers, nil
}

// Delete removes one peer from the cache of network.
func (pc *PeerCache) Delete(network, addr string) error {
	return pc.namespace(network).Delete(peerKey(addr))
}

// PruneStale removes records of network older than the cache age, and
// corrupt ones. Returns the number pruned.
func (pc *PeerCache) PruneStale(network string) (int, error) {
	ns := pc.namespace(network)
	cutoff := pc.now().Add(-pc.maxAge).Unix()
	var toDelete [][]byte

	err := ns.ForEach([]byte(peerKeyPrefix), func(key, value []byte) error {
		var rec PeerRecord
		if err := json.Unmarshal(value, &rec); err != nil || rec.LastSeen < cutoff {
			toDelete = append(toDelete, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("iterate for prune: %w", err)
	}

	for _, k := range toDelete {
		if err := ns.Delete(k); err != nil {
			return 0, fmt.Errorf("delete stale peer: %w", err)
		}
	}
	return len(toDelete), nil
}

// Count returns the number of records stored for network.
func (pc *PeerCache) Count(network string) (int, error) {
	count := 0
	err := pc.namespace(network).ForEach([]byte(peerKeyPrefix), func(key, value []byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count peers: %w", err)
	}
	return count, nil
}
