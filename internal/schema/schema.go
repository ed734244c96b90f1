// Package schema provides the entity metadata registry for the catalog console.
//
// The registry is populated once at startup from the embedded CUE catalog
// (catalog.cue) and consumed by the renderer (field selection), the resolver
// (linked-entity targets), and the aggregator (core/enrichment field lists).
package schema

import (
	"fmt"
)

// View identifies which console surface a field appears in.
type View string

const (
	ViewList   View = "list"
	ViewDetail View = "detail"
	ViewEdit   View = "edit"
)

// FieldKind classifies how the renderer treats a field's value.
type FieldKind string

const (
	KindText             FieldKind = "text"
	KindLongText         FieldKind = "long-text"
	KindNumber           FieldKind = "number"
	KindEnum             FieldKind = "enum"
	KindBoolean          FieldKind = "boolean"
	KindImmutableText    FieldKind = "immutable-text"
	KindTag              FieldKind = "tag"
	KindTimestamp        FieldKind = "timestamp"
	KindStructuredObject FieldKind = "structured-object"
	KindStructuredList   FieldKind = "structured-list"
	KindImageReference   FieldKind = "image-reference"
	KindVideoReference   FieldKind = "video-reference"
	KindLinkedEntitySet  FieldKind = "linked-entity-set"
)

// FieldSpec describes a single declared field on an entity kind.
type FieldSpec struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Kind       FieldKind `json:"kind"`
	VisibleIn  []View    `json:"visible_in"`
	Group      string    `json:"group,omitempty"`       // detail-view section label
	EnumValues []string  `json:"enum_values,omitempty"` // for enum kind
	Span       int       `json:"span,omitempty"`        // 1 or 2 display columns
	LinkedKind string    `json:"linked_kind,omitempty"` // target kind for linked-entity-set
}

// VisibleInView reports whether the field appears in the given view.
func (f FieldSpec) VisibleInView(v View) bool {
	for _, vis := range f.VisibleIn {
		if vis == v {
			return true
		}
	}
	return false
}

// EntitySchema holds the complete metadata for one entity kind.
type EntitySchema struct {
	Kind          string      `json:"kind"`
	Label         string      `json:"label"`
	NameField     string      `json:"name_field"`
	SubtitleField string      `json:"subtitle_field,omitempty"`
	Fields        []FieldSpec `json:"fields"`

	// CoreFields must all be populated for a record to count as complete.
	CoreFields []string `json:"core_fields"`
	// EnrichmentFields are filled in by a later curation pass; at least half
	// of them must be populated for a record to count as enriched.
	EnrichmentFields []string `json:"enrichment_fields"`
}

// Field returns the spec for a field key, or ok=false.
func (es *EntitySchema) Field(key string) (FieldSpec, bool) {
	for _, f := range es.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// LinkedFields returns the specs of kind linked-entity-set in declaration order.
func (es *EntitySchema) LinkedFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range es.Fields {
		if f.Kind == KindLinkedEntitySet {
			out = append(out, f)
		}
	}
	return out
}

// Registry holds schema metadata for all entity kinds. It is populated at
// startup and is safe for concurrent read access afterwards.
type Registry struct {
	schemas map[string]*EntitySchema
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*EntitySchema)}
}

// Register adds an entity schema to the registry.
func (r *Registry) Register(es *EntitySchema) {
	if _, exists := r.schemas[es.Kind]; !exists {
		r.order = append(r.order, es.Kind)
	}
	r.schemas[es.Kind] = es
}

// Schema returns the schema for a named entity kind.
func (r *Registry) Schema(kind string) (*EntitySchema, bool) {
	es, ok := r.schemas[kind]
	return es, ok
}

// Kinds returns all registered entity kinds in registration order.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// FieldsForView returns the fields of an entity kind visible in the given
// view, in declaration order. An unknown kind yields an empty list — the set
// of valid kinds is small and closed, so callers treat this as "nothing to
// render" rather than an error.
func (r *Registry) FieldsForView(kind string, v View) []FieldSpec {
	es, ok := r.schemas[kind]
	if !ok {
		return nil
	}
	var out []FieldSpec
	for _, f := range es.Fields {
		if f.VisibleInView(v) {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks startup invariants: field keys are unique within a kind,
// and every linked-entity-set field declares a registered target kind.
func (r *Registry) Validate() error {
	for _, kind := range r.order {
		es := r.schemas[kind]
		seen := make(map[string]bool, len(es.Fields))
		for _, f := range es.Fields {
			if seen[f.Key] {
				return fmt.Errorf("schema %s: duplicate field key %q", kind, f.Key)
			}
			seen[f.Key] = true
			if f.Kind == KindLinkedEntitySet {
				if f.LinkedKind == "" {
					return fmt.Errorf("schema %s: field %q is linked-entity-set but declares no target kind", kind, f.Key)
				}
				if _, ok := r.schemas[f.LinkedKind]; !ok {
					return fmt.Errorf("schema %s: field %q links to unregistered kind %q", kind, f.Key, f.LinkedKind)
				}
			}
		}
		for _, key := range es.CoreFields {
			if !seen[key] {
				return fmt.Errorf("schema %s: core field %q is not declared", kind, key)
			}
		}
		for _, key := range es.EnrichmentFields {
			if !seen[key] {
				return fmt.Errorf("schema %s: enrichment field %q is not declared", kind, key)
			}
		}
	}
	return nil
}
