package diffgen

import (
	"testing"

	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/jsonval"
)

func kvDelta(tableID string, inserts, deletes, updates map[string]string) *delta.Delta {
	toObj := func(m map[string]string) *jsonval.Value {
		o := jsonval.NewObject()
		for k, v := range m {
			o.Set(k, jsonval.String(v))
		}
		return o
	}
	return &delta.Delta{
		TableID: tableID,
		Kind:    delta.KindDelta,
		Inserts: toObj(inserts),
		Deletes: toObj(deletes),
		Updates: toObj(updates),
	}
}

// TestDiffFoldsMultipleBlocks is scenario S3/S6 combined: two blocks on the
// same table (insert K=V1, then update K=V2) fold into a single insert.
func TestDiffFoldsMultipleBlocks(t *testing.T) {
	s, err := chainstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	b1 := block.Create(buffer.GenesisID, []*delta.Delta{kvDelta("t", map[string]string{"K": "V1"}, nil, nil)}, 1)
	id1, err := s.StoreBlock(b1)
	if err != nil {
		t.Fatal(err)
	}
	b2 := block.Create(id1, []*delta.Delta{kvDelta("t", nil, nil, map[string]string{"K": "V2"})}, 2)
	id2, err := s.StoreBlock(b2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetHead(id2); err != nil {
		t.Fatal(err)
	}

	patch, err := Diff(s, buffer.GenesisID)
	if err != nil {
		t.Fatal(err)
	}
	if len(patch.Blocks) != 1 {
		t.Fatalf("expected exactly one folded block, got %d", len(patch.Blocks))
	}
	folded := patch.Blocks[0]
	if folded.Parent != buffer.GenesisID {
		t.Fatalf("folded block parent = %q, want genesis", folded.Parent)
	}
	if len(folded.Payload) != 1 {
		t.Fatalf("expected exactly one table delta, got %d", len(folded.Payload))
	}
	v, ok := folded.Payload[0].Inserts.Get("K")
	if !ok || v.StringValue() != "V2" {
		t.Fatalf("expected fold to insert K=V2, got %v ok=%v", v, ok)
	}
	if folded.Payload[0].Updates.Len() != 0 {
		t.Fatalf("expected no leftover updates after fold")
	}
}

func TestDiffAtHeadReturnsEmptyBlock(t *testing.T) {
	s, err := chainstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	patch, err := Diff(s, buffer.GenesisID)
	if err != nil {
		t.Fatal(err)
	}
	if len(patch.Blocks) != 1 || patch.Blocks[0].Parent != buffer.GenesisID || len(patch.Blocks[0].Payload) != 0 {
		t.Fatalf("expected a single empty block parented at genesis, got %+v", patch.Blocks)
	}
}
