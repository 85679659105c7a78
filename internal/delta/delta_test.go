package delta

import (
	"testing"

	"github.com/untoldecay/leech/internal/jsonval"
	"github.com/untoldecay/leech/internal/tablestate"
)

func state(pairs ...string) tablestate.State {
	s := tablestate.Empty()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Set(pairs[i], jsonval.String(pairs[i+1]))
	}
	return s
}

// TestComputeBeatlesCommit is scenario S1 from spec.md §8.
func TestComputeBeatlesCommit(t *testing.T) {
	old := tablestate.Empty()
	now := state(
		"Paul,McCartney", "1942",
		"Ringo,Starr", "1940",
		"John,Lennon", "1940",
	)
	d, err := Compute("beatles", KindSnapshot, now, old)
	if err != nil {
		t.Fatal(err)
	}
	if d.Inserts.Len() != 3 || d.Deletes.Len() != 0 || d.Updates.Len() != 0 {
		t.Fatalf("unexpected delta shape: +%d -%d ~%d", d.Inserts.Len(), d.Deletes.Len(), d.Updates.Len())
	}
}

// TestComputeUpdateAndDelete is scenario S2.
func TestComputeUpdateAndDelete(t *testing.T) {
	old := state(
		"Paul,McCartney", "1942",
		"Ringo,Starr", "1940",
		"John,Lennon", "1940",
	)
	now := state(
		"Paul,McCartney", "1942",
		"Ringo,Starr", "1941",
		"George,Harrison", "1943",
	)
	d, err := Compute("beatles", KindDelta, now, old)
	if err != nil {
		t.Fatal(err)
	}
	if d.Inserts.Len() != 1 || d.Deletes.Len() != 1 || d.Updates.Len() != 1 {
		t.Fatalf("unexpected delta shape: +%d -%d ~%d", d.Inserts.Len(), d.Deletes.Len(), d.Updates.Len())
	}
	iv, _ := d.Inserts.Get("George,Harrison")
	if iv.StringValue() != "1943" {
		t.Fatalf("unexpected insert value %q", iv.StringValue())
	}
	dv, _ := d.Deletes.Get("John,Lennon")
	if dv.StringValue() != "1940" {
		t.Fatalf("unexpected delete value %q", dv.StringValue())
	}
	uv, _ := d.Updates.Get("Ringo,Starr")
	if uv.StringValue() != "1941" {
		t.Fatalf("unexpected update value %q", uv.StringValue())
	}
}

func TestComputeSnapshotIdempotent(t *testing.T) {
	s := state("K", "V")
	d, err := Compute("t", KindDelta, s, s)
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsEmpty() {
		t.Fatalf("delta(S,S) should be empty, got +%d -%d ~%d", d.Inserts.Len(), d.Deletes.Len(), d.Updates.Len())
	}
}

// TestMergeInsertThenUpdate is scenario S3.
func TestMergeInsertThenUpdate(t *testing.T) {
	parent := &Delta{TableID: "t", Kind: KindDelta, Inserts: state("K", "V1"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}
	child := &Delta{TableID: "t", Kind: KindDelta, Inserts: tablestate.Empty(), Deletes: tablestate.Empty(), Updates: state("K", "V2")}

	merged, err := Merge(parent, child)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Updates.Len() != 0 {
		t.Fatalf("expected no updates, got %d", merged.Updates.Len())
	}
	v, ok := merged.Inserts.Get("K")
	if !ok || v.StringValue() != "V2" {
		t.Fatalf("expected insert K=V2, got %v ok=%v", v, ok)
	}
}

// TestMergeInsertThenDeleteCancels is scenario S4.
func TestMergeInsertThenDeleteCancels(t *testing.T) {
	parent := &Delta{TableID: "t", Kind: KindDelta, Inserts: state("K", "V1"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}
	child := &Delta{TableID: "t", Kind: KindDelta, Inserts: tablestate.Empty(), Deletes: state("K", "V1"), Updates: tablestate.Empty()}

	merged, err := Merge(parent, child)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Inserts.Len() != 0 || merged.Deletes.Len() != 0 || merged.Updates.Len() != 0 {
		t.Fatalf("expected key to cancel entirely, got +%d -%d ~%d", merged.Inserts.Len(), merged.Deletes.Len(), merged.Updates.Len())
	}
}

func TestMergeUpdateThenDeletePreservesParentValue(t *testing.T) {
	parent := &Delta{TableID: "t", Kind: KindDelta, Inserts: tablestate.Empty(), Deletes: tablestate.Empty(), Updates: state("K", "V1")}
	child := &Delta{TableID: "t", Kind: KindDelta, Inserts: tablestate.Empty(), Deletes: state("K", "STALE"), Updates: tablestate.Empty()}

	merged, err := Merge(parent, child)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := merged.Deletes.Get("K")
	if !ok || v.StringValue() != "V1" {
		t.Fatalf("expected delete to carry parent's value V1, got %v ok=%v", v, ok)
	}
}

func TestMergeDeleteThenInsertBecomesUpdate(t *testing.T) {
	parent := &Delta{TableID: "t", Kind: KindDelta, Inserts: tablestate.Empty(), Deletes: state("K", "OLD"), Updates: tablestate.Empty()}
	child := &Delta{TableID: "t", Kind: KindDelta, Inserts: state("K", "NEW"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}

	merged, err := Merge(parent, child)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := merged.Updates.Get("K")
	if !ok || v.StringValue() != "NEW" {
		t.Fatalf("expected update K=NEW, got %v ok=%v", v, ok)
	}
}

func TestMergeErrorCases(t *testing.T) {
	cases := []struct {
		name   string
		parent *Delta
		child  *Delta
	}{
		{"insert-insert", &Delta{TableID: "t", Inserts: state("K", "1"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}, &Delta{TableID: "t", Inserts: state("K", "2"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}},
		{"update-insert", &Delta{TableID: "t", Inserts: tablestate.Empty(), Deletes: tablestate.Empty(), Updates: state("K", "1")}, &Delta{TableID: "t", Inserts: state("K", "2"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}},
		{"delete-update", &Delta{TableID: "t", Inserts: tablestate.Empty(), Deletes: state("K", "1"), Updates: tablestate.Empty()}, &Delta{TableID: "t", Inserts: tablestate.Empty(), Deletes: tablestate.Empty(), Updates: state("K", "2")}},
		{"delete-delete", &Delta{TableID: "t", Inserts: tablestate.Empty(), Deletes: state("K", "1"), Updates: tablestate.Empty()}, &Delta{TableID: "t", Inserts: tablestate.Empty(), Deletes: state("K", "1"), Updates: tablestate.Empty()}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Merge(c.parent, c.child); err == nil {
				t.Fatalf("expected merge error")
			}
		})
	}
}

func TestDeltaJSONRoundTrip(t *testing.T) {
	d := &Delta{TableID: "beatles", Kind: KindDelta, Inserts: state("K", "V"), Deletes: tablestate.Empty(), Updates: tablestate.Empty()}
	js := d.ToJSON()
	back, err := FromJSON(js)
	if err != nil {
		t.Fatal(err)
	}
	if back.TableID != d.TableID || back.Kind != d.Kind {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	v, _ := back.Inserts.Get("K")
	if v.StringValue() != "V" {
		t.Fatalf("round trip lost insert value")
	}
}
