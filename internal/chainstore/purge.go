package chainstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/leech/internal/buffer"
)

// Purge prunes persisted blocks older than cutoff (a wall-clock seconds
// value), per original_source/bin/purge.c and spec.md §6's CLI surface. It
// never removes a block still reachable by walking parent pointers from
// HEAD back to the oldest id recorded across every peer's lastseen file --
// those blocks may still be needed to build a patch for a peer that has
// not caught up yet. Returns the number of blocks removed.
func (s *Store) Purge(cutoff int64) (int, error) {
	needed, err := s.neededBlockIDs()
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(filepath.Join(s.WorkDir, "blocks"))
	if err != nil {
		return 0, fmt.Errorf("chainstore: listing blocks: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		id := entry.Name()
		if needed[id] {
			continue
		}
		b, err := s.LoadBlock(id)
		if err != nil {
			return removed, fmt.Errorf("chainstore: loading block %q during purge: %w", id, err)
		}
		if b.Timestamp >= cutoff {
			continue
		}
		if err := os.Remove(filepath.Join(s.WorkDir, "blocks", id)); err != nil {
			return removed, fmt.Errorf("chainstore: removing block %q: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// neededBlockIDs walks HEAD back to the oldest lastseen id recorded for any
// peer (or to genesis, if there are no peers / no lastseen records yet) and
// returns the set of block ids still reachable on that span.
func (s *Store) neededBlockIDs() (map[string]bool, error) {
	floors, err := s.allLastseen()
	if err != nil {
		return nil, err
	}

	head, err := s.Head()
	if err != nil {
		return nil, err
	}

	needed := map[string]bool{}
	remaining := len(floors)
	id := head
	for id != buffer.GenesisID {
		needed[id] = true
		if floors[id] {
			remaining--
			if remaining <= 0 {
				break
			}
		}
		b, err := s.LoadBlock(id)
		if err != nil {
			return nil, fmt.Errorf("chainstore: walking chain from HEAD during purge: %w", err)
		}
		id = b.Parent
	}
	return needed, nil
}

func (s *Store) allLastseen() (map[string]bool, error) {
	entries, err := os.ReadDir(filepath.Join(s.WorkDir, "lastseen"))
	if err != nil {
		return nil, fmt.Errorf("chainstore: listing lastseen: %w", err)
	}
	floors := map[string]bool{}
	for _, entry := range entries {
		id, err := s.Lastseen(entry.Name())
		if err != nil {
			return nil, err
		}
		floors[id] = true
	}
	return floors, nil
}
