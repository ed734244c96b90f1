package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

type stubFetcher struct {
	mu      sync.Mutex
	calls   int32
	failFor map[string]bool // kind -> fail
	byKind  map[string][]storage.Record
	block   chan struct{} // when non-nil, FetchByIDs waits until closed
}

func (f *stubFetcher) FetchByIDs(_ context.Context, kind string, ids []string) ([]storage.Record, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	if f.failFor[kind] {
		return nil, errors.New("backend exploded")
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Record
	for _, rec := range f.byKind[kind] {
		if want[rec.ID()] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Load()
	require.NoError(t, err)
	return reg
}

func TestResolve_MapsFieldsToRefs(t *testing.T) {
	fetcher := &stubFetcher{byKind: map[string][]storage.Record{
		"element": {
			{"id": "el-1", "name": "Iron", "category": "mineral"},
			{"id": "el-2", "name": "Zinc", "category": "mineral", "image": "zinc.png"},
		},
	}}
	sess := NewSession(fetcher, testRegistry(t), zap.NewNop())
	defer sess.Close()

	rec := storage.Record{"id": "ing-1", "elements": []any{"el-1", "el-2"}}
	es, _ := testRegistry(t).Schema("ingredient")
	refs := sess.Resolve(context.Background(), rec, es.Fields)

	require.Len(t, refs["elements"], 2)
	require.Equal(t, "Iron", refs["elements"][0].DisplayName)
	require.Equal(t, "mineral", refs["elements"][0].Category)
	require.Equal(t, "zinc.png", refs["elements"][1].ImageRef)
}

func TestResolve_FailedLookupYieldsEmptyListForThatFieldOnly(t *testing.T) {
	reg := schema.NewRegistry()
	reg.Register(&schema.EntitySchema{Kind: "element", Label: "Element", NameField: "name",
		Fields: []schema.FieldSpec{{Key: "name", Kind: schema.KindText}}})
	reg.Register(&schema.EntitySchema{Kind: "product", Label: "Product", NameField: "name",
		Fields: []schema.FieldSpec{{Key: "name", Kind: schema.KindText}}})
	reg.Register(&schema.EntitySchema{Kind: "mix", Label: "Mix", NameField: "name",
		Fields: []schema.FieldSpec{
			{Key: "elements", Kind: schema.KindLinkedEntitySet, LinkedKind: "element"},
			{Key: "products", Kind: schema.KindLinkedEntitySet, LinkedKind: "product"},
		}})
	require.NoError(t, reg.Validate())

	fetcher := &stubFetcher{
		failFor: map[string]bool{"element": true},
		byKind: map[string][]storage.Record{
			"product": {{"id": "pr-1", "name": "Granola"}},
		},
	}
	sess := NewSession(fetcher, reg, zap.NewNop())
	defer sess.Close()

	es, _ := reg.Schema("mix")
	rec := storage.Record{"id": "m-1", "elements": []any{"el-1"}, "products": []any{"pr-1"}}
	refs := sess.Resolve(context.Background(), rec, es.Fields)

	require.Empty(t, refs["elements"], "failed field resolves to empty list")
	require.Len(t, refs["products"], 1, "other fields are unaffected")
}

func TestResolve_SkipsEmptyAndNonLinkedFields(t *testing.T) {
	fetcher := &stubFetcher{byKind: map[string][]storage.Record{}}
	sess := NewSession(fetcher, testRegistry(t), zap.NewNop())
	defer sess.Close()

	es, _ := testRegistry(t).Schema("ingredient")
	rec := storage.Record{"id": "ing-1", "name": "Spinach"} // no elements field
	refs := sess.Resolve(context.Background(), rec, es.Fields)

	require.Empty(t, refs)
	require.Zero(t, atomic.LoadInt32(&fetcher.calls), "no lookup without ids")
}

func TestResolve_CachesWithinSession(t *testing.T) {
	fetcher := &stubFetcher{byKind: map[string][]storage.Record{
		"element": {{"id": "el-1", "name": "Iron"}},
	}}
	sess := NewSession(fetcher, testRegistry(t), zap.NewNop())
	defer sess.Close()

	es, _ := testRegistry(t).Schema("ingredient")
	rec := storage.Record{"id": "ing-1", "elements": []any{"el-1"}}

	sess.Resolve(context.Background(), rec, es.Fields)
	sess.Resolve(context.Background(), rec, es.Fields)

	require.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls), "second resolve must hit the session cache")
}

func TestResolve_LateResultsDiscardedAfterClose(t *testing.T) {
	fetcher := &stubFetcher{
		byKind: map[string][]storage.Record{"element": {{"id": "el-1", "name": "Iron"}}},
		block:  make(chan struct{}),
	}
	sess := NewSession(fetcher, testRegistry(t), zap.NewNop())

	es, _ := testRegistry(t).Schema("ingredient")
	rec := storage.Record{"id": "ing-1", "elements": []any{"el-1"}}

	var delivered int32
	doneCh := make(chan struct{})
	go func() {
		sess.ResolveEach(context.Background(), rec, es.Fields, func(string, []Ref) {
			atomic.AddInt32(&delivered, 1)
		})
		close(doneCh)
	}()

	sess.Close()
	close(fetcher.block) // let the in-flight lookup land
	<-doneCh

	require.Zero(t, atomic.LoadInt32(&delivered), "results landing after Close must be discarded")
}
