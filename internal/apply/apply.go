// Package apply implements patch ingestion (spec.md §4.K): version checking,
// per-peer lastseen advancement, and per-row dispatch to configured table
// adapters, with self-update suppression.
package apply

import (
	"context"
	"fmt"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/csvcodec"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/patchenv"
	"github.com/untoldecay/leech/internal/tablestate"
)

// Table pairs a configured table's schema with the adapter and locator used
// to write rows dispatched from an applied patch.
type Table struct {
	Schema  tablestate.Schema
	Adapter adapter.Adapter
	Locator string
}

// Identity names the column (within a table's primary key) and value this
// host publishes itself as, used for self-update suppression.
type Identity struct {
	UIDField string
	UIDValue string
}

// Logger receives non-fatal apply diagnostics. Nil is a valid logger that
// discards everything.
type Logger interface {
	Warnf(format string, args ...any)
}

// Apply ingests patch into store, dispatching rows to the adapters named in
// tables (indexed by table id), applying self-update suppression per ident,
// and logging+skipping deltas for tables not present in tables. Peer's
// lastseen is advanced to patch.LastKnown before any row is dispatched, so a
// failed apply still records that the patch's bytes were consumed; on a
// dispatch or adapter-transaction failure, no further blocks are processed.
func Apply(ctx context.Context, store *chainstore.Store, peer string, patch *patchenv.Patch, tables map[string]Table, ident Identity, log Logger) error {
	if err := patchenv.CheckCompatible(patch.Version); err != nil {
		return err
	}

	if err := store.SetLastseen(peer, patch.LastKnown); err != nil {
		return fmt.Errorf("apply: advancing lastseen for %q: %w", peer, err)
	}

	for _, b := range patch.Blocks {
		for _, d := range b.Payload {
			t, ok := tables[d.TableID]
			if !ok {
				warnf(log, "apply: skipping delta for unconfigured table %q", d.TableID)
				continue
			}
			if err := applyDelta(ctx, t, d, ident); err != nil {
				return fmt.Errorf("apply: table %q: %w", d.TableID, err)
			}
		}
	}
	return nil
}

func warnf(log Logger, format string, args ...any) {
	if log != nil {
		log.Warnf(format, args...)
	}
}

// applyDelta dispatches one table's delta within its own adapter
// transaction, in the order deletes, updates, inserts (spec.md §4.K step 3).
func applyDelta(ctx context.Context, t Table, d *delta.Delta, ident Identity) error {
	conn, err := t.Adapter.BeginTx(ctx, t.Locator)
	if err != nil {
		return fmt.Errorf("begin_tx: %w", err)
	}

	nPrimary := len(t.Schema.Primary)
	uidIndex := -1
	for i, col := range t.Schema.Primary {
		if col == ident.UIDField {
			uidIndex = i
			break
		}
	}

	apply := func(kind string, key, val string, callback func(ctx context.Context, tid string, cols, vals []string) (bool, error)) error {
		primaryVals, err := csvcodec.ParseRecord([]byte(key))
		if err != nil {
			return fmt.Errorf("%s: decoding key %q: %w", kind, key, err)
		}
		if uidIndex >= 0 && uidIndex < len(primaryVals) && primaryVals[uidIndex] == ident.UIDValue {
			return nil
		}
		subsidiaryVals, err := csvcodec.ParseRecord([]byte(val))
		if err != nil {
			return fmt.Errorf("%s: decoding value %q: %w", kind, val, err)
		}
		cols := append(append([]string{}, t.Schema.Primary...), t.Schema.Subsidiary...)
		vals := append(append([]string{}, primaryVals...), subsidiaryVals...)
		if len(vals) != nPrimary+len(t.Schema.Subsidiary) {
			return fmt.Errorf("%s: row %q/%q has wrong column count", kind, key, val)
		}
		ok, err := callback(ctx, t.Schema.ID, cols, vals)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if !ok {
			return fmt.Errorf("%s: adapter rejected row", kind)
		}
		return nil
	}

	var applyErr error
	for _, key := range d.Deletes.Keys() {
		v, _ := d.Deletes.Get(key)
		if applyErr = apply("delete", key, v.StringValue(), conn.Delete); applyErr != nil {
			break
		}
	}
	if applyErr == nil {
		for _, key := range d.Updates.Keys() {
			v, _ := d.Updates.Get(key)
			if applyErr = apply("update", key, v.StringValue(), conn.Update); applyErr != nil {
				break
			}
		}
	}
	if applyErr == nil {
		for _, key := range d.Inserts.Keys() {
			v, _ := d.Inserts.Get(key)
			if applyErr = apply("insert", key, v.StringValue(), conn.Insert); applyErr != nil {
				break
			}
		}
	}

	ok, endErr := conn.EndTx(ctx, applyErr == nil)
	if applyErr != nil {
		return applyErr
	}
	if endErr != nil {
		return fmt.Errorf("end_tx: %w", endErr)
	}
	if !ok {
		return fmt.Errorf("end_tx: adapter reported failure")
	}
	return nil
}
