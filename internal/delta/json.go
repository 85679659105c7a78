package delta

import (
	"fmt"

	"github.com/untoldecay/leech/internal/jsonval"
)

// ToJSON renders d using the canonical delta schema from spec.md §6:
//
//	{"id":"<table-id>","type":"delta|snapshot|rebase",
//	 "inserts":{...},"deletes":{...},"updates":{...}}
func (d *Delta) ToJSON() *jsonval.Value {
	obj := jsonval.NewObject()
	obj.Set("id", jsonval.String(d.TableID))
	obj.Set("type", jsonval.String(string(d.Kind)))
	obj.Set("inserts", d.Inserts.Copy())
	obj.Set("deletes", d.Deletes.Copy())
	obj.Set("updates", d.Updates.Copy())
	return obj
}

// FromJSON parses a canonical delta object back into a Delta.
func FromJSON(v *jsonval.Value) (*Delta, error) {
	if v.Kind() != jsonval.KindObject {
		return nil, fmt.Errorf("delta: expected JSON object")
	}
	id, ok := v.Get("id")
	if !ok || id.Kind() != jsonval.KindString {
		return nil, fmt.Errorf("delta: missing or invalid %q field", "id")
	}
	typ, ok := v.Get("type")
	if !ok || typ.Kind() != jsonval.KindString {
		return nil, fmt.Errorf("delta: missing or invalid %q field", "type")
	}
	inserts, err := requireObject(v, "inserts")
	if err != nil {
		return nil, err
	}
	deletes, err := requireObject(v, "deletes")
	if err != nil {
		return nil, err
	}
	updates, err := requireObject(v, "updates")
	if err != nil {
		return nil, err
	}
	return &Delta{
		TableID: id.StringValue(),
		Kind:    Kind(typ.StringValue()),
		Inserts: inserts,
		Deletes: deletes,
		Updates: updates,
	}, nil
}

func requireObject(v *jsonval.Value, field string) (*jsonval.Value, error) {
	fv, ok := v.Get(field)
	if !ok || fv.Kind() != jsonval.KindObject {
		return nil, fmt.Errorf("delta: missing or invalid %q field", field)
	}
	return fv, nil
}
