// Package patchenv implements the patch envelope (spec.md §3, §4.H): a
// versioned container of blocks plus the ancestor id ("lastknown") the
// recipient is expected to already hold.
package patchenv

import (
	"fmt"

	"github.com/untoldecay/leech/internal/block"
	"github.com/untoldecay/leech/internal/jsonval"
	"golang.org/x/mod/semver"
)

// Version is this build's patch envelope version (LCH_PATCH_VERSION).
const Version = 1

// Patch is the transport envelope for a (usually folded) sub-chain.
type Patch struct {
	Version   int
	LastKnown string
	Timestamp int64
	Blocks    []*block.Block
}

// ToJSON renders p using the canonical patch schema from spec.md §6:
//
//	{"version":<N>,"lastknown":"<40-hex>","timestamp":<number>,"blocks":[<block>, ...]}
func (p *Patch) ToJSON() *jsonval.Value {
	obj := jsonval.NewObject()
	obj.Set("version", jsonval.Number(float64(p.Version)))
	obj.Set("lastknown", jsonval.String(p.LastKnown))
	obj.Set("timestamp", jsonval.Number(float64(p.Timestamp)))
	blocks := jsonval.NewArray()
	for _, b := range p.Blocks {
		blocks.Append(b.ToJSON())
	}
	obj.Set("blocks", blocks)
	return obj
}

// Compose serializes p to its canonical bytes.
func (p *Patch) Compose() []byte {
	return jsonval.Compose(p.ToJSON())
}

// FromJSON parses a canonical patch object.
func FromJSON(v *jsonval.Value) (*Patch, error) {
	if v.Kind() != jsonval.KindObject {
		return nil, fmt.Errorf("patchenv: expected JSON object")
	}
	version, ok := v.Get("version")
	if !ok || version.Kind() != jsonval.KindNumber {
		return nil, fmt.Errorf("patchenv: missing or invalid %q field", "version")
	}
	lastknown, ok := v.Get("lastknown")
	if !ok || lastknown.Kind() != jsonval.KindString {
		return nil, fmt.Errorf("patchenv: missing or invalid %q field", "lastknown")
	}
	ts, ok := v.Get("timestamp")
	if !ok || ts.Kind() != jsonval.KindNumber {
		return nil, fmt.Errorf("patchenv: missing or invalid %q field", "timestamp")
	}
	blocksVal, ok := v.Get("blocks")
	if !ok || blocksVal.Kind() != jsonval.KindArray {
		return nil, fmt.Errorf("patchenv: missing or invalid %q field", "blocks")
	}
	blocks := make([]*block.Block, 0, len(blocksVal.Array()))
	for i, bv := range blocksVal.Array() {
		b, err := block.FromJSON(bv)
		if err != nil {
			return nil, fmt.Errorf("patchenv: block entry %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return &Patch{
		Version:   int(version.NumberValue()),
		LastKnown: lastknown.StringValue(),
		Timestamp: int64(ts.NumberValue()),
		Blocks:    blocks,
	}, nil
}

// Parse decodes patch bytes end to end.
func Parse(data []byte) (*Patch, error) {
	v, err := jsonval.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("patchenv: %w", err)
	}
	return FromJSON(v)
}

// semverString renders an integer patch version as a semver string so it
// can be compared with golang.org/x/mod/semver, matching the version-gate
// pattern internal/rpc uses elsewhere in the teacher codebase.
func semverString(version int) string {
	return fmt.Sprintf("v%d.0.0", version)
}

// CheckCompatible rejects a patch whose major version does not match ours,
// per spec.md §4.H.
func CheckCompatible(patchVersion int) error {
	ours, theirs := semverString(Version), semverString(patchVersion)
	if semver.Major(ours) != semver.Major(theirs) {
		return fmt.Errorf("patchenv: incompatible patch version %d, expected major version compatible with %d", patchVersion, Version)
	}
	return nil
}
