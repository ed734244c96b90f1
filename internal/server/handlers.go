package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/analytics"
	"github.com/pantrylabs/console/internal/render"
	"github.com/pantrylabs/console/internal/resolve"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

// kindInfo is one entry of the kind directory.
type kindInfo struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	var out []kindInfo
	for _, kind := range s.reg.Kinds() {
		es, _ := s.reg.Schema(kind)
		out = append(out, kindInfo{Kind: kind, Label: es.Label})
	}
	writeJSON(w, http.StatusOK, map[string]any{"kinds": out})
}

// entitySchema resolves the {kind} path parameter, answering 404 itself
// when the kind is not in the catalog.
func (s *Server) entitySchema(w http.ResponseWriter, r *http.Request) (*schema.EntitySchema, bool) {
	kind := chi.URLParam(r, "kind")
	es, ok := s.reg.Schema(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_KIND", "unknown entity kind: "+kind)
		return nil, false
	}
	return es, true
}

// fetchCollection pulls a kind's records and refreshes the search cache
// snapshot as a side effect, so search follows whatever was last listed.
func (s *Server) fetchCollection(r *http.Request, kind string) ([]storage.Record, error) {
	records, err := s.store.FetchCollection(r.Context(), kind)
	if err != nil {
		return nil, err
	}
	s.cache.Snapshot(kind, records)
	return records, nil
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	es, ok := s.entitySchema(w, r)
	if !ok {
		return
	}
	records, err := s.fetchCollection(r, es.Kind)
	if err != nil {
		s.logger.Warn("list records failed", zap.String("kind", es.Kind), zap.Error(err))
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    es.Kind,
		"fields":  s.reg.FieldsForView(es.Kind, schema.ViewList),
		"records": records,
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	es, ok := s.entitySchema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	records, err := s.store.FetchByIDs(r.Context(), es.Kind, []string{id})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
		return
	}
	rec := records[0]

	sess := resolve.NewSession(s.store, s.reg, s.logger)
	defer sess.Close()
	links := sess.Resolve(r.Context(), rec, es.LinkedFields())

	detail := render.RenderDetail(es, rec, render.Context{Links: links})
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePatchRecord(w http.ResponseWriter, r *http.Request) {
	es, ok := s.entitySchema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var partial map[string]any
	if err := decodeJSON(r, &partial); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "body must be a JSON object of changed fields")
		return
	}
	delete(partial, "id")
	if len(partial) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}

	if err := s.store.UpdateRecord(r.Context(), es.Kind, id, partial); err != nil {
		s.logger.Warn("update failed",
			zap.String("kind", es.Kind), zap.String("id", id), zap.Error(err))
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	es, ok := s.entitySchema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteRecord(r.Context(), es.Kind, id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// analyticsResponse is the combined analytics payload for one kind.
type analyticsResponse struct {
	Summary analytics.Summary `json:"summary"`
	Trend   analytics.Trend   `json:"trend"`
	Funnel  *analytics.Funnel `json:"funnel,omitempty"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	es, ok := s.entitySchema(w, r)
	if !ok {
		return
	}
	records, err := s.fetchCollection(r, es.Kind)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	now := s.now()
	resp := analyticsResponse{
		Summary: analytics.Summarize(es, records, dateRange(r.URL.Query().Get("range")), now),
		Trend:   analytics.BuildTrend(records, granularity(r.URL.Query().Get("granularity")), now),
	}

	// The conversion funnel only describes the signup flow.
	if es.Kind == "signup" && s.funnel != nil {
		counts, err := s.funnel.StageCounts(r.Context())
		if err != nil {
			s.logger.Warn("funnel source failed", zap.Error(err))
		} else {
			f := analytics.BuildFunnel(counts)
			resp.Funnel = &f
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	excluding := r.URL.Query().Get("excluding")
	matches := s.cache.Search(q, excluding)
	writeJSON(w, http.StatusOK, map[string]any{"results": matches})
}

// dateRange parses the range query parameter, defaulting to all history.
func dateRange(raw string) analytics.DateRange {
	switch r := analytics.DateRange(raw); r {
	case analytics.RangeDay, analytics.RangeWeek, analytics.RangeMonth, analytics.RangeYear:
		return r
	default:
		return analytics.RangeAll
	}
}

// granularity parses the granularity query parameter, defaulting to daily.
func granularity(raw string) analytics.Granularity {
	switch g := analytics.Granularity(raw); g {
	case analytics.ByWeek, analytics.ByMonth:
		return g
	default:
		return analytics.ByDay
	}
}
