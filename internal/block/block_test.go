package block

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/jsonval"
)

func emptyDelta(id string) *delta.Delta {
	return &delta.Delta{
		TableID: id,
		Kind:    delta.KindDelta,
		Inserts: jsonval.NewObject(),
		Deletes: jsonval.NewObject(),
		Updates: jsonval.NewObject(),
	}
}

func TestIDChangesOnMutation(t *testing.T) {
	b1 := Create(buffer.GenesisID, []*delta.Delta{emptyDelta("t")}, 100)
	b2 := Create(buffer.GenesisID, []*delta.Delta{emptyDelta("t")}, 101)
	if b1.ID() == b2.ID() {
		t.Fatalf("changing timestamp should change block id")
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := Create(buffer.GenesisID, []*delta.Delta{emptyDelta("beatles")}, 12345)
	id, err := Store(dir, b)
	if err != nil {
		t.Fatal(err)
	}
	if id != b.ID() {
		t.Fatalf("store returned id %q, want %q", id, b.ID())
	}
	got, err := Load(dir, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Parent != b.Parent || got.Timestamp != b.Timestamp {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingBlockFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, "0000000000000000000000000000000000000000"); err == nil {
		t.Fatalf("loading a nonexistent block id should fail")
	}
}

func TestIDFromArgumentAmbiguous(t *testing.T) {
	dir := t.TempDir()
	blocksDir := filepath.Join(dir, "blocks")
	if err := os.MkdirAll(blocksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Two ids sharing a prefix at the directory-listing level.
	for _, name := range []string{"abcde1111111111111111111111111111111111", "abcde2222222222222222222222222222222222"} {
		if err := os.WriteFile(filepath.Join(blocksDir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, ok := IDFromArgument(dir, "abcde"); ok {
		t.Fatalf("5-char shared prefix should be ambiguous")
	}
	if id, ok := IDFromArgument(dir, "abcde1"); !ok || id != "abcde1111111111111111111111111111111111" {
		t.Fatalf("6-char prefix should resolve uniquely, got %q ok=%v", id, ok)
	}
	if _, ok := IDFromArgument(dir, "ffffff"); ok {
		t.Fatalf("nonexistent prefix should not resolve")
	}
}
