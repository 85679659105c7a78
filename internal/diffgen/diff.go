// Package diffgen implements patch generation (spec.md §4.J): folding the
// local chain between HEAD and a caller-supplied ancestor into a single
// equivalent block, plus the rebase and history read-only queries
// supplemented from original_source/bin/rebase.c and bin/history.c.
package diffgen

import (
	"fmt"
	"time"

	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/patchenv"
)

// Diff walks the chain rooted at store's HEAD back to finalID and returns a
// patch whose single block is equivalent to the in-order concatenation of
// every block in between. finalID must be walkable back to from HEAD, or to
// genesis itself; a missing block along the way is a fatal error.
func Diff(store *chainstore.Store, finalID string) (*patchenv.Patch, error) {
	head, err := store.Head()
	if err != nil {
		return nil, fmt.Errorf("diffgen: reading HEAD: %w", err)
	}

	now := time.Now().Unix()

	if head == finalID {
		empty := block.Create(finalID, nil, now)
		return &patchenv.Patch{Version: patchenv.Version, LastKnown: finalID, Timestamp: now, Blocks: []*block.Block{empty}}, nil
	}

	child := &block.Block{Parent: head, Timestamp: now, Payload: nil}
	for {
		parent, err := store.LoadBlock(child.Parent)
		if err != nil {
			return nil, fmt.Errorf("diffgen: loading ancestor block %q: %w", child.Parent, err)
		}
		merged, err := foldPayloads(parent.Payload, child.Payload)
		if err != nil {
			return nil, fmt.Errorf("diffgen: folding blocks: %w", err)
		}
		parent.Payload = merged
		child = parent
		if child.Parent == finalID {
			break
		}
	}

	return &patchenv.Patch{Version: patchenv.Version, LastKnown: finalID, Timestamp: now, Blocks: []*block.Block{child}}, nil
}

// foldPayloads drains childPayload into parentPayload by table id: a table
// id present in both is merged via delta.Merge (parent applied first); a
// table id only in childPayload is appended as-is.
func foldPayloads(parentPayload, childPayload []*delta.Delta) ([]*delta.Delta, error) {
	result := append([]*delta.Delta(nil), parentPayload...)
	index := make(map[string]int, len(result))
	for i, d := range result {
		index[d.TableID] = i
	}

	for _, childDelta := range childPayload {
		if i, ok := index[childDelta.TableID]; ok {
			merged, err := delta.Merge(result[i], childDelta)
			if err != nil {
				return nil, err
			}
			result[i] = merged
			continue
		}
		index[childDelta.TableID] = len(result)
		result = append(result, childDelta)
	}
	return result, nil
}
