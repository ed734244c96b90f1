// Package storage defines the record-storage collaborator contract and its
// concrete backends. Records are open-ended field maps: nothing here
// validates them against their schema, and readers must tolerate missing,
// null, or differently-shaped values for any field.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the record (or kind) does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrUnavailable indicates the backend refused or could not be reached.
	// Reads degrade to empty views on this; writes must surface it.
	ErrUnavailable = errors.New("storage: backend unavailable")
)

// Record is one row of domain data, an open-ended mapping from field key to
// arbitrary value. The "id" key identifies the record.
type Record map[string]any

// ID returns the record's identifier, or "" if absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of the record's top level. Rendering treats
// records as immutable snapshots; edits go through a Draft instead.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store is the record-storage collaborator. Callers never assume a call
// succeeds; every mutating call surfaces a distinguishable failure without
// corrupting already-rendered state.
type Store interface {
	// FetchCollection returns the whole record set for an entity kind.
	FetchCollection(ctx context.Context, kind string) ([]Record, error)
	// FetchByIDs returns the subset of a kind's records matching ids,
	// in no guaranteed order. Missing ids are silently absent.
	FetchByIDs(ctx context.Context, kind string, ids []string) ([]Record, error)
	// UpdateRecord patches only the supplied fields onto an existing record.
	UpdateRecord(ctx context.Context, kind, id string, partial map[string]any) error
	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, kind, id string) error
}

// Inserter is implemented by backends that accept new records (seeding).
type Inserter interface {
	InsertRecord(ctx context.Context, kind string, rec Record) error
}
