package storage

import (
	"context"
	"reflect"
)

// Draft is an edited copy of a record. The rendered record stays an
// immutable snapshot; all edits accumulate here and only the changed fields
// (plus the identifying key) are sent on save, so a partial update never
// clobbers concurrent server-side state.
type Draft struct {
	base   Record
	fields Record
}

// NewDraft starts an edit session over a snapshot of rec.
func NewDraft(rec Record) *Draft {
	return &Draft{base: rec.Clone(), fields: rec.Clone()}
}

// Set stages a new value for a field.
func (d *Draft) Set(key string, value any) {
	d.fields[key] = value
}

// Get returns the staged value for a field.
func (d *Draft) Get(key string) any {
	return d.fields[key]
}

// Changes returns only the fields whose staged value differs from the
// snapshot. An unchanged draft yields an empty map.
func (d *Draft) Changes() map[string]any {
	out := make(map[string]any)
	for k, v := range d.fields {
		if k == "id" {
			continue
		}
		base, existed := d.base[k]
		if !existed || !reflect.DeepEqual(base, v) {
			out[k] = v
		}
	}
	return out
}

// Dirty reports whether any field differs from the snapshot.
func (d *Draft) Dirty() bool {
	return len(d.Changes()) > 0
}

// Save applies the changed fields through the store. A failure leaves the
// snapshot and the staged edits intact so nothing the user typed is lost.
func (d *Draft) Save(ctx context.Context, store Store, kind string) error {
	changes := d.Changes()
	if len(changes) == 0 {
		return nil
	}
	return store.UpdateRecord(ctx, kind, d.base.ID(), changes)
}
