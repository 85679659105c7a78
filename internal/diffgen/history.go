package diffgen

import (
	"fmt"

	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/chainstore"
)

// HistoryEntry is one primary-key touch found while scanning the chain.
type HistoryEntry struct {
	BlockID   string
	Timestamp int64
	TableID   string
	Op        string // "insert", "update", or "delete"
	Value     string
}

// History scans store's chain for every delta entry keyed by primaryKey
// (the canonical CSV composition of a row's primary fields) whose block
// timestamp falls in [from, to], per original_source/bin/history.c. It is
// read-only: it neither mutates HEAD nor lastseen. Results are returned
// oldest-first.
func History(store *chainstore.Store, primaryKey string, from, to int64) ([]HistoryEntry, error) {
	head, err := store.Head()
	if err != nil {
		return nil, fmt.Errorf("diffgen: history: reading HEAD: %w", err)
	}

	var entries []HistoryEntry
	id := head
	for id != buffer.GenesisID {
		b, err := store.LoadBlock(id)
		if err != nil {
			return nil, fmt.Errorf("diffgen: history: loading block %q: %w", id, err)
		}
		if b.Timestamp >= from && b.Timestamp <= to {
			for _, d := range b.Payload {
				if v, ok := d.Inserts.Get(primaryKey); ok {
					entries = append(entries, HistoryEntry{id, b.Timestamp, d.TableID, "insert", v.StringValue()})
				}
				if v, ok := d.Updates.Get(primaryKey); ok {
					entries = append(entries, HistoryEntry{id, b.Timestamp, d.TableID, "update", v.StringValue()})
				}
				if v, ok := d.Deletes.Get(primaryKey); ok {
					entries = append(entries, HistoryEntry{id, b.Timestamp, d.TableID, "delete", v.StringValue()})
				}
			}
		}
		id = b.Parent
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
