package commitpipeline

import (
	"context"
	"testing"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/tablestate"
)

// fakeAdapter serves a fixed row set for ReadState and never opens a write
// transaction, matching what the commit pipeline actually exercises.
type fakeAdapter struct {
	rows []adapter.Row
}

func (a *fakeAdapter) ReadState(ctx context.Context, locator string) ([]adapter.Row, error) {
	return a.rows, nil
}

func (a *fakeAdapter) BeginTx(ctx context.Context, locator string) (adapter.Conn, error) {
	panic("commit never writes to adapters")
}

func TestCommitFirstRunProducesInsertsAndAdvancesHead(t *testing.T) {
	store, err := chainstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fa := &fakeAdapter{rows: []adapter.Row{{"1", "Ada"}, {"2", "Grace"}}}
	schema := tablestate.Schema{ID: "people", Primary: []string{"id"}, Subsidiary: []string{"name"}}

	res, err := Commit(context.Background(), store, []Table{{Schema: schema, Adapter: fa}})
	if err != nil {
		t.Fatal(err)
	}
	if res.ParentID != buffer.GenesisID {
		t.Fatalf("parent = %q, want genesis", res.ParentID)
	}
	if len(res.Deltas) != 1 || res.Deltas[0].Inserts.Len() != 2 {
		t.Fatalf("expected one delta with two inserts, got %+v", res.Deltas)
	}

	head, err := store.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head != res.BlockID {
		t.Fatalf("HEAD = %q, want %q", head, res.BlockID)
	}
}

func TestCommitWithNoChangesProducesEmptyDeltas(t *testing.T) {
	store, err := chainstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fa := &fakeAdapter{rows: []adapter.Row{{"1", "Ada"}}}
	schema := tablestate.Schema{ID: "people", Primary: []string{"id"}, Subsidiary: []string{"name"}}
	table := Table{Schema: schema, Adapter: fa}

	if _, err := Commit(context.Background(), store, []Table{table}); err != nil {
		t.Fatal(err)
	}

	res, err := Commit(context.Background(), store, []Table{table})
	if err != nil {
		t.Fatal(err)
	}
	// spec.md §4.I step 2 collects every configured table's delta into the
	// payload, not just the non-empty ones; an unchanged table still
	// contributes an empty delta.
	if len(res.Deltas) != 1 || !res.Deltas[0].IsEmpty() {
		t.Fatalf("expected one empty delta on an unchanged second commit, got %+v", res.Deltas)
	}
	if res.BlockID == res.ParentID {
		t.Fatalf("expected a new block even with no changes")
	}
}
