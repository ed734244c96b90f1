// Package resolve turns linked-entity id fields on a record into display
// references by batched lookups against the target kind's collection.
// Resolution is scoped to a Session that lives for one detail-view open;
// results arriving after the session closes are discarded.
package resolve

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/fieldval"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

// Ref is the resolved display object for one linked entity id.
type Ref struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// Fetcher is the narrow slice of the record store the resolver needs.
type Fetcher interface {
	FetchByIDs(ctx context.Context, kind string, ids []string) ([]storage.Record, error)
}

type cacheKey struct {
	field string
	id    string
}

// Session caches resolved references for the lifetime of one detail view.
// The cache is keyed by (source field, id); it is discarded with the session
// when the view closes.
type Session struct {
	fetcher Fetcher
	reg     *schema.Registry
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	cache  map[cacheKey]Ref
}

// NewSession starts a resolution session for one detail-view open.
func NewSession(fetcher Fetcher, reg *schema.Registry, logger *zap.Logger) *Session {
	return &Session{
		fetcher: fetcher,
		reg:     reg,
		logger:  logger,
		cache:   make(map[cacheKey]Ref),
	}
}

// Close marks the session finished. In-flight lookups are not interrupted,
// but their results are discarded when they land.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.mu.Unlock()
}

// Resolve looks up every linked-entity-set field present with a non-empty id
// list on the record. All per-field lookups run concurrently; a failed
// lookup logs and yields an empty list for that field only, never failing
// the whole view.
func (s *Session) Resolve(ctx context.Context, record storage.Record, fields []schema.FieldSpec) map[string][]Ref {
	out := make(map[string][]Ref)
	var outMu sync.Mutex
	s.ResolveEach(ctx, record, fields, func(field string, refs []Ref) {
		outMu.Lock()
		out[field] = refs
		outMu.Unlock()
	})
	return out
}

// ResolveEach is Resolve with per-field delivery: done is invoked as each
// field's lookup completes, letting callers render incrementally instead of
// waiting on the slowest field. done may be called from multiple goroutines.
// ResolveEach returns once every field has been delivered or dropped.
func (s *Session) ResolveEach(ctx context.Context, record storage.Record, fields []schema.FieldSpec, done func(field string, refs []Ref)) {
	var wg sync.WaitGroup
	for _, spec := range fields {
		if spec.Kind != schema.KindLinkedEntitySet {
			continue
		}
		ids := fieldval.StringIDs(record[spec.Key])
		if len(ids) == 0 {
			continue
		}
		wg.Add(1)
		go func(spec schema.FieldSpec, ids []string) {
			defer wg.Done()
			refs := s.resolveField(ctx, spec, ids)
			s.mu.Lock()
			stale := s.closed
			s.mu.Unlock()
			if stale {
				return
			}
			done(spec.Key, refs)
		}(spec, ids)
	}
	wg.Wait()
}

// resolveField serves one field from the session cache, fetching only the
// ids not yet cached.
func (s *Session) resolveField(ctx context.Context, spec schema.FieldSpec, ids []string) []Ref {
	cached := make(map[string]Ref)
	var missing []string

	s.mu.Lock()
	for _, id := range ids {
		if ref, ok := s.cache[cacheKey{spec.Key, id}]; ok {
			cached[id] = ref
		} else {
			missing = append(missing, id)
		}
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		records, err := s.fetcher.FetchByIDs(ctx, spec.LinkedKind, missing)
		if err != nil {
			s.logger.Warn("linked-entity lookup failed",
				zap.String("field", spec.Key),
				zap.String("target_kind", spec.LinkedKind),
				zap.Error(err))
			records = nil
		}
		s.mu.Lock()
		if !s.closed {
			for _, rec := range records {
				ref := s.toRef(spec.LinkedKind, rec)
				cached[ref.ID] = ref
				s.cache[cacheKey{spec.Key, ref.ID}] = ref
			}
		} else {
			for _, rec := range records {
				ref := s.toRef(spec.LinkedKind, rec)
				cached[ref.ID] = ref
			}
		}
		s.mu.Unlock()
	}

	// Preserve the record's id order; unresolvable ids are dropped.
	var out []Ref
	for _, id := range ids {
		if ref, ok := cached[id]; ok {
			out = append(out, ref)
		}
	}
	if out == nil {
		out = []Ref{}
	}
	return out
}

// toRef projects a fetched record into a display reference using the target
// kind's schema for the name field.
func (s *Session) toRef(kind string, rec storage.Record) Ref {
	ref := Ref{ID: rec.ID()}
	if es, ok := s.reg.Schema(kind); ok {
		if name, ok := rec[es.NameField].(string); ok {
			ref.DisplayName = name
		}
	}
	if ref.DisplayName == "" {
		for _, key := range []string{"name", "title", "label"} {
			if name, ok := rec[key].(string); ok && name != "" {
				ref.DisplayName = name
				break
			}
		}
	}
	if cat, ok := rec["category"].(string); ok {
		ref.Category = cat
	}
	if typ, ok := rec["type"].(string); ok {
		ref.Type = typ
	}
	if img, ok := rec["image"].(string); ok {
		ref.ImageRef = img
	}
	return ref
}
