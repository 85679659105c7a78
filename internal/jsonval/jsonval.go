// Package jsonval implements the canonical, order-preserving JSON value type
// leech builds everything else on top of: blocks, deltas and patches are all
// composed and parsed through this package so that the same bytes in always
// produce the same bytes out (round-trip preservation), which is what makes
// a block's content hash meaningful.
package jsonval

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which JSON type a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindString
	KindNumber
	KindArray
	KindObject
)

// Object is an insertion-ordered string-keyed map of *Value. Key lookup and
// iteration in insertion order are both O(1)-amortized/O(n) via go-ordered-map.
type Object = orderedmap.OrderedMap[string, *Value]

// Value is a typed variant over {null, true, false, string, number, array, object}.
type Value struct {
	kind Kind
	b    bool
	s    string
	n    float64
	arr  []*Value
	obj  *Object
}

func Null() *Value               { return &Value{kind: KindNull} }
func Bool(b bool) *Value          { return &Value{kind: KindBool, b: b} }
func String(s string) *Value      { return &Value{kind: KindString, s: s} }
func Number(n float64) *Value     { return &Value{kind: KindNumber, n: n} }
func NewArray(items ...*Value) *Value {
	return &Value{kind: KindArray, arr: append([]*Value(nil), items...)}
}
func NewObject() *Value {
	return &Value{kind: KindObject, obj: orderedmap.New[string, *Value]()}
}

func (v *Value) Kind() Kind      { return v.kind }
func (v *Value) IsNull() bool    { return v.kind == KindNull }
func (v *Value) BoolValue() bool { return v.b }
func (v *Value) StringValue() string { return v.s }
func (v *Value) NumberValue() float64 { return v.n }
func (v *Value) Array() []*Value { return v.arr }
func (v *Value) Object() *Object { return v.obj }

// Append appends an item to an array value in place.
func (v *Value) Append(item *Value) {
	v.arr = append(v.arr, item)
}

// Set inserts or overwrites key in an object value, preserving the position
// of an existing key and appending new keys at the end. Ownership of val
// transfers to the object; the caller must not mutate it afterwards.
func (v *Value) Set(key string, val *Value) {
	v.obj.Set(key, val)
}

// Get looks up key in an object value.
func (v *Value) Get(key string) (*Value, bool) {
	return v.obj.Get(key)
}

// Keys returns an object's keys in insertion order. The returned slice is a
// fresh copy; mutating it does not affect the object.
func (v *Value) Keys() []string {
	keys := make([]string, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns an array's length or an object's key count.
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Copy returns a deep copy of v.
func (v *Value) Copy() *Value {
	switch v.kind {
	case KindArray:
		items := make([]*Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Copy()
		}
		return &Value{kind: KindArray, arr: items}
	case KindObject:
		out := NewObject()
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, pair.Value.Copy())
		}
		return out
	default:
		cp := *v
		return &cp
	}
}

// Equal reports whether v and other are structurally equal. Object key
// order does not affect equality; array order does.
func Equal(v, other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindNumber:
		return v.n == other.n
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !Equal(v.arr[i], other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			ov, ok := other.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ObjectKeysSetMinus returns a new object holding deep copies of A's entries
// whose keys are absent from B. This and ObjectKeysIntersectAndValuesSetMinus
// are the algebraic backbone delta computation is built from (component E).
func ObjectKeysSetMinus(a, b *Value) (*Value, error) {
	if a.kind != KindObject || b.kind != KindObject {
		return nil, fmt.Errorf("jsonval: ObjectKeysSetMinus requires object operands")
	}
	out := NewObject()
	for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
		if _, present := b.obj.Get(pair.Key); !present {
			out.Set(pair.Key, pair.Value.Copy())
		}
	}
	return out, nil
}

// ObjectKeysIntersectAndValuesSetMinus returns a new object holding deep
// copies of A's entries whose keys are present in B but whose values are not
// structurally equal to B's value for that key.
func ObjectKeysIntersectAndValuesSetMinus(a, b *Value) (*Value, error) {
	if a.kind != KindObject || b.kind != KindObject {
		return nil, fmt.Errorf("jsonval: ObjectKeysIntersectAndValuesSetMinus requires object operands")
	}
	out := NewObject()
	for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
		bv, present := b.obj.Get(pair.Key)
		if present && !Equal(pair.Value, bv) {
			out.Set(pair.Key, pair.Value.Copy())
		}
	}
	return out, nil
}
