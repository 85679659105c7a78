package diffgen

import (
	"context"
	"fmt"
	"time"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/patchenv"
	"github.com/untoldecay/leech/internal/tablestate"
)

// RebaseTable pairs a table's schema with the adapter and locator to read
// its current state from, for use by Rebase.
type RebaseTable struct {
	Schema  tablestate.Schema
	Adapter adapter.Adapter
	Locator string
}

// Rebase dumps every configured table's current state as a single
// kind=rebase block whose parent is the genesis id, per
// original_source/bin/rebase.c: a fresh host bootstraps from this instead
// of replaying the whole chain.
func Rebase(ctx context.Context, tables []RebaseTable) (*patchenv.Patch, error) {
	payload := make([]*delta.Delta, 0, len(tables))
	for _, t := range tables {
		state, err := tablestate.LoadNewState(ctx, t.Schema, t.Adapter, t.Locator)
		if err != nil {
			return nil, fmt.Errorf("diffgen: rebase: loading table %q: %w", t.Schema.ID, err)
		}
		d, err := delta.Compute(t.Schema.ID, delta.KindRebase, state, tablestate.Empty())
		if err != nil {
			return nil, fmt.Errorf("diffgen: rebase: computing delta for %q: %w", t.Schema.ID, err)
		}
		payload = append(payload, d)
	}

	now := time.Now().Unix()
	b := block.Create(buffer.GenesisID, payload, now)
	return &patchenv.Patch{
		Version:   patchenv.Version,
		LastKnown: buffer.GenesisID,
		Timestamp: now,
		Blocks:    []*block.Block{b},
	}, nil
}
