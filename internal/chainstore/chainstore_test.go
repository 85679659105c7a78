package chainstore

import (
	"testing"

	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/buffer"
)

func TestHeadDefaultsToGenesis(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	head, err := s.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head != buffer.GenesisID {
		t.Fatalf("got %q want genesis", head)
	}
}

func TestSetHeadPersists(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b := block.Create(buffer.GenesisID, nil, 100)
	id, err := s.StoreBlock(b)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetHead(id); err != nil {
		t.Fatal(err)
	}
	got, err := s.Head()
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("got %q want %q", got, id)
	}
}

func TestLastseenRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Lastseen("peerA")
	if err != nil {
		t.Fatal(err)
	}
	if got != buffer.GenesisID {
		t.Fatalf("default lastseen should be genesis, got %q", got)
	}
	if err := s.SetLastseen("peerA", "deadbeef"); err != nil {
		t.Fatal(err)
	}
	got, err = s.Lastseen("peerA")
	if err != nil {
		t.Fatal(err)
	}
	if got != "deadbeef" {
		t.Fatalf("got %q want deadbeef", got)
	}
}

func TestPurgeKeepsChainNeededByLastseen(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b1 := block.Create(buffer.GenesisID, nil, 1)
	id1, err := s.StoreBlock(b1)
	if err != nil {
		t.Fatal(err)
	}
	b2 := block.Create(id1, nil, 2)
	id2, err := s.StoreBlock(b2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetHead(id2); err != nil {
		t.Fatal(err)
	}
	// A lagging peer still needs b1.
	if err := s.SetLastseen("lagging", id1); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Purge(1000)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing removed while a peer still needs b1, removed %d", removed)
	}
	if !block.Exists(s.WorkDir, id1) || !block.Exists(s.WorkDir, id2) {
		t.Fatalf("expected both blocks to survive purge")
	}
}

// TestPurgeKeepsSpanToDeepestPeerFloor reproduces the scenario where two
// peers sit at different depths: neededBlockIDs must keep walking past the
// shallower lastseen floor (peerA at id2) all the way to the deeper one
// (peerB at id1), not stop at the first floor it meets.
func TestPurgeKeepsSpanToDeepestPeerFloor(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	id1, err := s.StoreBlock(block.Create(buffer.GenesisID, nil, 1))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.StoreBlock(block.Create(id1, nil, 2))
	if err != nil {
		t.Fatal(err)
	}
	id3, err := s.StoreBlock(block.Create(id2, nil, 3))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetHead(id3); err != nil {
		t.Fatal(err)
	}
	// peerA is nearly caught up (floor at id2, the shallower/newer one);
	// peerB is far behind (floor at id1, the deeper/older one).
	if err := s.SetLastseen("peerA", id2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastseen("peerB", id1); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Purge(1000)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing removed while peerB still needs id1, removed %d", removed)
	}
	if !block.Exists(s.WorkDir, id1) || !block.Exists(s.WorkDir, id2) || !block.Exists(s.WorkDir, id3) {
		t.Fatalf("expected every block on the span down to peerB's floor to survive purge")
	}
}
