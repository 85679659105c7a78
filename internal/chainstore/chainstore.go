// Package chainstore manages the on-disk chain directory (spec.md §4.G):
// the HEAD pointer, the blocks/ content-addressed store, and the lastseen/
// per-peer registry. All mutable single-writer files are updated via
// write-temp-then-rename.
package chainstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/buffer"
)

// Store is a handle on a chain's working directory.
type Store struct {
	WorkDir string
}

// Open returns a Store rooted at workDir, creating the directory layout if
// it does not already exist (directory creation is idempotent).
func Open(workDir string) (*Store, error) {
	for _, sub := range []string{"blocks", "snapshots", "lastseen"} {
		if err := os.MkdirAll(filepath.Join(workDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("chainstore: creating %q: %w", sub, err)
		}
	}
	return &Store{WorkDir: workDir}, nil
}

func (s *Store) headPath() string { return filepath.Join(s.WorkDir, "HEAD") }

// Head returns the current chain tip, or the genesis id if HEAD has never
// been written.
func (s *Store) Head() (string, error) {
	data, err := os.ReadFile(s.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return buffer.GenesisID, nil
		}
		return "", fmt.Errorf("chainstore: reading HEAD: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetHead atomically advances HEAD to id.
func (s *Store) SetHead(id string) error {
	tmp, err := os.CreateTemp(s.WorkDir, "HEAD.tmp-*")
	if err != nil {
		return fmt.Errorf("chainstore: creating temp HEAD: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: writing temp HEAD: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: closing temp HEAD: %w", err)
	}
	if err := os.Rename(tmpPath, s.headPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: renaming temp HEAD into place: %w", err)
	}
	return nil
}

// LoadBlock loads the block stored under id.
func (s *Store) LoadBlock(id string) (*block.Block, error) {
	return block.Load(s.WorkDir, id)
}

// StoreBlock persists b and returns its id.
func (s *Store) StoreBlock(b *block.Block) (string, error) {
	return block.Store(s.WorkDir, b)
}

// BlockIDFromArgument resolves a caller-supplied hex prefix to a unique
// persisted block id.
func (s *Store) BlockIDFromArgument(prefix string) (string, bool) {
	return block.IDFromArgument(s.WorkDir, prefix)
}

func (s *Store) lastseenPath(peer string) string {
	return filepath.Join(s.WorkDir, "lastseen", peer)
}

// Lastseen returns the id last recorded for peer by SetLastseen (apply
// records the lastknown id of each patch it ingests from peer, before
// dispatching its rows), or the genesis id if nothing was recorded yet.
func (s *Store) Lastseen(peer string) (string, error) {
	data, err := os.ReadFile(s.lastseenPath(peer))
	if err != nil {
		if os.IsNotExist(err) {
			return buffer.GenesisID, nil
		}
		return "", fmt.Errorf("chainstore: reading lastseen for %q: %w", peer, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetLastseen atomically advances peer's lastseen pointer to id.
func (s *Store) SetLastseen(peer, id string) error {
	dir := filepath.Join(s.WorkDir, "lastseen")
	tmp, err := os.CreateTemp(dir, peer+".tmp-*")
	if err != nil {
		return fmt.Errorf("chainstore: creating temp lastseen: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: writing temp lastseen: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: closing temp lastseen: %w", err)
	}
	if err := os.Rename(tmpPath, s.lastseenPath(peer)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chainstore: renaming temp lastseen into place: %w", err)
	}
	return nil
}
