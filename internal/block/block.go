// Package block implements the hash-linked, timestamped chain node
// (spec.md §4.F): a parent pointer and an ordered payload of per-table
// deltas, content-addressed by the SHA-1 of its canonical JSON composition.
package block

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/delta"
	"github.com/untoldecay/leech/internal/jsonval"
)

// Block is an immutable, content-addressed chain node.
type Block struct {
	Parent    string
	Timestamp int64
	Payload   []*delta.Delta
}

// Create builds a new block from parentID and payload, stamping it with now
// (wall-clock seconds).
func Create(parentID string, payload []*delta.Delta, now int64) *Block {
	return &Block{Parent: parentID, Timestamp: now, Payload: payload}
}

// ToJSON renders b using the canonical block schema from spec.md §6:
//
//	{"parent":"<40-hex>","timestamp":<number>,"payload":[<delta>, ...]}
func (b *Block) ToJSON() *jsonval.Value {
	obj := jsonval.NewObject()
	obj.Set("parent", jsonval.String(b.Parent))
	obj.Set("timestamp", jsonval.Number(float64(b.Timestamp)))
	payload := jsonval.NewArray()
	for _, d := range b.Payload {
		payload.Append(d.ToJSON())
	}
	obj.Set("payload", payload)
	return obj
}

// FromJSON parses a canonical block object.
func FromJSON(v *jsonval.Value) (*Block, error) {
	if v.Kind() != jsonval.KindObject {
		return nil, fmt.Errorf("block: expected JSON object")
	}
	parent, ok := v.Get("parent")
	if !ok || parent.Kind() != jsonval.KindString {
		return nil, fmt.Errorf("block: missing or invalid %q field", "parent")
	}
	ts, ok := v.Get("timestamp")
	if !ok || ts.Kind() != jsonval.KindNumber {
		return nil, fmt.Errorf("block: missing or invalid %q field", "timestamp")
	}
	payloadVal, ok := v.Get("payload")
	if !ok || payloadVal.Kind() != jsonval.KindArray {
		return nil, fmt.Errorf("block: missing or invalid %q field", "payload")
	}
	payload := make([]*delta.Delta, 0, len(payloadVal.Array()))
	for i, dv := range payloadVal.Array() {
		d, err := delta.FromJSON(dv)
		if err != nil {
			return nil, fmt.Errorf("block: payload entry %d: %w", i, err)
		}
		payload = append(payload, d)
	}
	return &Block{Parent: parent.StringValue(), Timestamp: int64(ts.NumberValue()), Payload: payload}, nil
}

// Compose returns the canonical serialization b's id is computed from.
func (b *Block) Compose() []byte {
	return jsonval.Compose(b.ToJSON())
}

// ID returns the block's content address: the SHA-1 hex digest of its
// canonical composition. A single-byte mutation anywhere in the block
// changes this value (spec.md §8 invariant 1).
func (b *Block) ID() string {
	return buffer.SHA1Hex(b.Compose())
}

func blockPath(workDir, id string) string {
	return filepath.Join(workDir, "blocks", id)
}

// Store persists b under blocks/<id> if it does not already exist. Since
// ids are content addresses, an existing file with the same name is left
// untouched -- it necessarily holds the same bytes.
func Store(workDir string, b *Block) (string, error) {
	id := b.ID()
	dir := filepath.Join(workDir, "blocks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("block: creating blocks dir: %w", err)
	}
	path := blockPath(workDir, id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("block: statting %q: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, id+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("block: creating temp block file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b.Compose()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("block: writing temp block file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("block: closing temp block file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("block: renaming temp block file into place: %w", err)
	}
	return id, nil
}

// Load reads and parses the block stored under id, and fails fatally if the
// recomputed id does not match the requested id -- that indicates
// corruption of the content-addressed store.
func Load(workDir, id string) (*Block, error) {
	data, err := os.ReadFile(blockPath(workDir, id))
	if err != nil {
		return nil, fmt.Errorf("block: reading %q: %w", id, err)
	}
	v, err := jsonval.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("block: parsing %q: %w", id, err)
	}
	b, err := FromJSON(v)
	if err != nil {
		return nil, fmt.Errorf("block: decoding %q: %w", id, err)
	}
	if got := b.ID(); got != id {
		return nil, fmt.Errorf("block: integrity check failed for %q: recomputed id %q", id, got)
	}
	return b, nil
}

// Exists reports whether a block with the given id is persisted.
func Exists(workDir, id string) bool {
	_, err := os.Stat(blockPath(workDir, id))
	return err == nil
}
