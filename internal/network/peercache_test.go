package network

import (
	"testing"
	"time"

	"github.com/ArkEcosystemArchive/ark-cli/internal/storage"
)

func newTestPeerCache() *PeerCache {
	return NewPeerCache(storage.NewMemory(), time.Hour)
}

func TestPeerCache_SaveLoad(t *testing.T) {
	pc := newTestPeerCache()

	peers := []string{"10.0.0.3:4003", "10.0.0.1:4003", "10.0.0.2:4003"}
	if err := pc.Save("devnet", peers); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := pc.Load("devnet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(peers) {
		t.Fatalf("Load returned %d peers, want %d", len(got), len(peers))
	}
	for i := range peers {
		if got[i] != peers[i] {
			t.Errorf("peer %d = %s, want %s (rank order lost)", i, got[i], peers[i])
		}
	}
}

func TestPeerCache_SaveReplaces(t *testing.T) {
	pc := newTestPeerCache()

	pc.Save("devnet", []string{"10.0.0.1:4003", "10.0.0.2:4003"})
	pc.Save("devnet", []string{"10.0.0.9:4003"})

	got, _ := pc.Load("devnet")
	if len(got) != 1 || got[0] != "10.0.0.9:4003" {
		t.Errorf("Load = %v, want [10.0.0.9:4003]", got)
	}
}

func TestPeerCache_NetworksIsolated(t *testing.T) {
	pc := newTestPeerCache()

	pc.Save("devnet", []string{"10.0.0.1:4003"})
	pc.Save("mainnet", []string{"10.1.0.1:4003", "10.1.0.2:4003"})

	dev, _ := pc.Count("devnet")
	main, _ := pc.Count("mainnet")
	if dev != 1 || main != 2 {
		t.Errorf("counts = %d/%d, want 1/2", dev, main)
	}

	// Replacing one network leaves the other alone.
	pc.Save("devnet", nil)
	main, _ = pc.Count("mainnet")
	if main != 2 {
		t.Errorf("mainnet count after devnet reset = %d", main)
	}
}

func TestPeerCache_StaleIgnoredAndPruned(t *testing.T) {
	pc := newTestPeerCache()
	now := time.Now()
	pc.now = func() time.Time { return now }

	pc.Save("devnet", []string{"10.0.0.1:4003", "10.0.0.2:4003"})

	now = now.Add(2 * time.Hour)
	got, err := pc.Load("devnet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stale peers returned: %v", got)
	}

	pruned, err := pc.PruneStale("devnet")
	if err != nil {
		t.Fatalf("PruneStale: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned)
	}
	if n, _ := pc.Count("devnet"); n != 0 {
		t.Errorf("count after prune = %d", n)
	}
}

func TestPeerCache_CorruptRecordSkipped(t *testing.T) {
	db := storage.NewMemory()
	pc := NewPeerCache(db, time.Hour)
	pc.Save("devnet", []string{"10.0.0.1:4003"})

	db.Put([]byte("net/devnet/peer/garbage"), []byte("{not json"))

	got, err := pc.Load("devnet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Load = %v, want only the valid record", got)
	}

	pruned, _ := pc.PruneStale("devnet")
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}

func TestPeerCache_Delete(t *testing.T) {
	pc := newTestPeerCache()
	pc.Save("devnet", []string{"10.0.0.1:4003", "10.0.0.2:4003"})

	if err := pc.Delete("devnet", "10.0.0.1:4003"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := pc.Load("devnet")
	if len(got) != 1 || got[0] != "10.0.0.2:4003" {
		t.Errorf("Load after delete = %v", got)
	}
}

func TestPeerCache_Cap(t *testing.T) {
	pc := newTestPeerCache()
	peers := make([]string, maxPersistedPeers+10)
	for i := range peers {
		peers[i] = JoinHostPort("10.0.0.1", 1000+i)
	}
	pc.Save("devnet", peers)

	n, _ := pc.Count("devnet")
	if n != maxPersistedPeers {
		t.Errorf("count = %d, want %d", n, maxPersistedPeers)
	}
}
