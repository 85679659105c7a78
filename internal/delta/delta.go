// Package delta implements the three-way set operations that turn two table
// snapshots into a set of typed row operations (spec.md §4.E), and the fold
// rules that collapse two consecutive deltas on the same table into one.
package delta

import (
	"fmt"

	"github.com/untoldecay/leech/internal/jsonval"
	"github.com/untoldecay/leech/internal/tablestate"
)

// Kind identifies how a Delta's payload was produced.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindDelta    Kind = "delta"
	KindRebase   Kind = "rebase"
)

// Delta is a single table's insert/delete/update set, computed from two
// states or folded from two consecutive deltas.
type Delta struct {
	TableID string
	Kind    Kind
	Inserts *jsonval.Value // key -> new value
	Deletes *jsonval.Value // key -> old value
	Updates *jsonval.Value // key -> new value
}

// Compute returns the delta that turns oldState into newState for tableID.
// For kind snapshot/rebase, callers pass an empty oldState so every row in
// newState is presented as an insert.
func Compute(tableID string, kind Kind, newState, oldState tablestate.State) (*Delta, error) {
	inserts, err := jsonval.ObjectKeysSetMinus(newState, oldState)
	if err != nil {
		return nil, fmt.Errorf("delta: computing inserts for %q: %w", tableID, err)
	}
	deletes, err := jsonval.ObjectKeysSetMinus(oldState, newState)
	if err != nil {
		return nil, fmt.Errorf("delta: computing deletes for %q: %w", tableID, err)
	}
	updates, err := jsonval.ObjectKeysIntersectAndValuesSetMinus(newState, oldState)
	if err != nil {
		return nil, fmt.Errorf("delta: computing updates for %q: %w", tableID, err)
	}
	return &Delta{
		TableID: tableID,
		Kind:    kind,
		Inserts: inserts,
		Deletes: deletes,
		Updates: updates,
	}, nil
}

// IsEmpty reports whether the delta carries no row operations at all.
func (d *Delta) IsEmpty() bool {
	return d.Inserts.Len() == 0 && d.Deletes.Len() == 0 && d.Updates.Len() == 0
}

// rowKind classifies how key k is touched by d, if at all.
type rowKind int

const (
	rowNone rowKind = iota
	rowInsert
	rowUpdate
	rowDelete
)

func classify(d *Delta, key string) (rowKind, *jsonval.Value) {
	if v, ok := d.Inserts.Get(key); ok {
		return rowInsert, v
	}
	if v, ok := d.Updates.Get(key); ok {
		return rowUpdate, v
	}
	if v, ok := d.Deletes.Get(key); ok {
		return rowDelete, v
	}
	return rowNone, nil
}

// MergeError reports a key whose parent/child delta kinds violate the fold
// rules of spec.md §4.E -- a sign of a malformed or out-of-order chain.
type MergeError struct {
	TableID string
	Key     string
	Reason  string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("delta: merge violation on table %q key %q: %s", e.TableID, e.Key, e.Reason)
}

// Merge collapses parent (applied first) and child (applied second) into a
// single delta equivalent to their in-order application, per the table in
// spec.md §4.E. It mutates child in place and returns it; the caller
// discards parent's delta for this table afterward. TableID must match on
// both sides.
func Merge(parent, child *Delta) (*Delta, error) {
	if parent.TableID != child.TableID {
		return nil, fmt.Errorf("delta: cannot merge deltas for different tables %q and %q", parent.TableID, child.TableID)
	}

	seen := map[string]struct{}{}
	var keys []string
	addKeys := func(d *Delta) {
		for _, ks := range [][]string{d.Inserts.Keys(), d.Updates.Keys(), d.Deletes.Keys()} {
			for _, k := range ks {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					keys = append(keys, k)
				}
			}
		}
	}
	addKeys(parent)
	addKeys(child)

	inserts := jsonval.NewObject()
	deletes := jsonval.NewObject()
	updates := jsonval.NewObject()

	for _, key := range keys {
		pk, pv := classify(parent, key)
		ck, cv := classify(child, key)

		var resultKind rowKind
		var resultVal *jsonval.Value

		switch {
		case pk == rowNone:
			resultKind, resultVal = ck, cv
		case ck == rowNone:
			// Child never touched this key: parent's effect passes through.
			resultKind, resultVal = pk, pv
		case pk == rowInsert && ck == rowInsert:
			return nil, &MergeError{parent.TableID, key, "insert followed by insert"}
		case pk == rowInsert && ck == rowUpdate:
			resultKind, resultVal = rowInsert, cv
		case pk == rowInsert && ck == rowDelete:
			// Cancel: row never existed from an outside observer's perspective.
			continue
		case pk == rowUpdate && ck == rowInsert:
			return nil, &MergeError{parent.TableID, key, "update followed by insert"}
		case pk == rowUpdate && ck == rowUpdate:
			resultKind, resultVal = rowUpdate, cv
		case pk == rowUpdate && ck == rowDelete:
			resultKind, resultVal = rowDelete, pv
		case pk == rowDelete && ck == rowInsert:
			resultKind, resultVal = rowUpdate, cv
		case pk == rowDelete && ck == rowUpdate:
			return nil, &MergeError{parent.TableID, key, "delete followed by update: no row to update"}
		case pk == rowDelete && ck == rowDelete:
			return nil, &MergeError{parent.TableID, key, "delete followed by delete"}
		default:
			return nil, &MergeError{parent.TableID, key, "unreachable merge state"}
		}

		switch resultKind {
		case rowInsert:
			inserts.Set(key, resultVal)
		case rowUpdate:
			updates.Set(key, resultVal)
		case rowDelete:
			deletes.Set(key, resultVal)
		}
	}

	child.Inserts = inserts
	child.Deletes = deletes
	child.Updates = updates
	return child, nil
}
