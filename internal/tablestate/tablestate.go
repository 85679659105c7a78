// Package tablestate implements the table state model (spec.md §4.D): the
// mapping from a composite primary key to a composite subsidiary value,
// loaded from a configured table's adapter and persisted as a snapshot.
package tablestate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/csvcodec"
	"github.com/untoldecay/leech/internal/jsonval"
)

// Schema identifies a configured table: its id, the ordered primary and
// subsidiary column names. Primary and subsidiary sets must be disjoint and
// Primary must be non-empty; callers are expected to validate this at
// config-load time (see internal/config).
type Schema struct {
	ID         string
	Primary    []string
	Subsidiary []string
}

// State is the mapping from primary key (canonical CSV composition of the
// row's P-ordered fields) to subsidiary value (canonical CSV composition of
// the row's S-ordered fields). It is represented as a canonical JSON object
// so it composes deterministically for on-disk snapshots and shares its
// algebra with delta computation (component E).
type State = *jsonval.Value

// Empty returns a new, empty table state.
func Empty() State { return jsonval.NewObject() }

// LoadNewState invokes the adapter's read capability for locator, validates
// every row has len(P)+len(S) columns in the expected order, and composes
// the primary-key -> subsidiary-value mapping. A duplicate primary key or a
// wrong column count fails the load.
func LoadNewState(ctx context.Context, schema Schema, a adapter.Adapter, locator string) (State, error) {
	rows, err := a.ReadState(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("tablestate: reading state for %q: %w", schema.ID, err)
	}

	wantCols := len(schema.Primary) + len(schema.Subsidiary)
	state := Empty()
	for i, row := range rows {
		if len(row) != wantCols {
			return nil, fmt.Errorf("tablestate: table %q row %d has %d columns, want %d", schema.ID, i, len(row), wantCols)
		}
		key := csvcodec.ComposeRecord(row[:len(schema.Primary)])
		val := csvcodec.ComposeRecord(row[len(schema.Primary):])
		if _, exists := state.Get(key); exists {
			return nil, fmt.Errorf("tablestate: table %q has duplicate primary key %q", schema.ID, key)
		}
		state.Set(key, jsonval.String(val))
	}
	return state, nil
}

func snapshotPath(workDir, tableID string) string {
	return filepath.Join(workDir, "snapshots", tableID)
}

// LoadOldState loads the previously committed snapshot for tableID from
// workDir. A missing snapshot file yields an empty state (first commit).
func LoadOldState(workDir, tableID string) (State, error) {
	data, err := os.ReadFile(snapshotPath(workDir, tableID))
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("tablestate: reading snapshot for %q: %w", tableID, err)
	}
	v, err := jsonval.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tablestate: parsing snapshot for %q: %w", tableID, err)
	}
	return v, nil
}

// StoreNewState atomically replaces tableID's on-disk snapshot with state
// (write to a temp file, then rename over the old snapshot).
func StoreNewState(workDir, tableID string, state State) error {
	dir := filepath.Join(workDir, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tablestate: creating snapshots dir: %w", err)
	}
	path := snapshotPath(workDir, tableID)
	tmp, err := os.CreateTemp(dir, tableID+".tmp-*")
	if err != nil {
		return fmt.Errorf("tablestate: creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(jsonval.Compose(state)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("tablestate: writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tablestate: closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("tablestate: renaming temp snapshot into place: %w", err)
	}
	return nil
}
