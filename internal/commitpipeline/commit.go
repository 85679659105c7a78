// Package commitpipeline orchestrates a commit: for every configured table,
// load its new and old state, compute the delta, persist a refreshed
// snapshot if anything changed, then wrap the accumulated deltas in a new
// block and advance HEAD (spec.md §4.I).
package commitpipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/tablestate"
)

// Table pairs a configured table's schema with the adapter and locator used
// to read its current rows.
type Table struct {
	Schema      tablestate.Schema
	Adapter     adapter.Adapter
	ReadLocator string
}

// Result summarizes a successful commit.
type Result struct {
	BlockID  string
	ParentID string
	Deltas   []*delta.Delta
}

// Commit runs the commit pipeline over tables against store. If any step
// fails, HEAD is left untouched; snapshots already rewritten for
// tables processed before the failure stay rewritten, since the adapter's
// state is the ground truth and the chain is derived from it (spec.md §4.I).
func Commit(ctx context.Context, store *chainstore.Store, tables []Table) (*Result, error) {
	var payload []*delta.Delta

	for _, t := range tables {
		newState, err := tablestate.LoadNewState(ctx, t.Schema, t.Adapter, t.ReadLocator)
		if err != nil {
			return nil, fmt.Errorf("commitpipeline: loading new state for %q: %w", t.Schema.ID, err)
		}
		oldState, err := tablestate.LoadOldState(store.WorkDir, t.Schema.ID)
		if err != nil {
			return nil, fmt.Errorf("commitpipeline: loading old state for %q: %w", t.Schema.ID, err)
		}

		d, err := delta.Compute(t.Schema.ID, delta.KindDelta, newState, oldState)
		if err != nil {
			return nil, fmt.Errorf("commitpipeline: computing delta for %q: %w", t.Schema.ID, err)
		}

		if !d.IsEmpty() {
			if err := tablestate.StoreNewState(store.WorkDir, t.Schema.ID, newState); err != nil {
				return nil, fmt.Errorf("commitpipeline: storing snapshot for %q: %w", t.Schema.ID, err)
			}
		}
		payload = append(payload, d)
	}

	parentID, err := store.Head()
	if err != nil {
		return nil, fmt.Errorf("commitpipeline: reading HEAD: %w", err)
	}

	b := block.Create(parentID, payload, time.Now().Unix())
	blockID, err := store.StoreBlock(b)
	if err != nil {
		return nil, fmt.Errorf("commitpipeline: storing block: %w", err)
	}

	if err := store.SetHead(blockID); err != nil {
		return nil, fmt.Errorf("commitpipeline: advancing HEAD: %w", err)
	}

	return &Result{BlockID: blockID, ParentID: parentID, Deltas: payload}, nil
}
