package wire

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/analytics"
	"github.com/pantrylabs/console/internal/funnel"
	"github.com/pantrylabs/console/internal/render"
	"github.com/pantrylabs/console/internal/resolve"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/searchcache"
	"github.com/pantrylabs/console/internal/storage"
)

// Handler manages WebSocket connections for the console wire protocol.
type Handler struct {
	store  storage.Store
	reg    *schema.Registry
	cache  *searchcache.Cache
	funnel funnel.Source
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a wire handler sharing the REST surface's collaborators.
func NewHandler(store storage.Store, reg *schema.Registry, cache *searchcache.Cache, src funnel.Source, logger *zap.Logger, now func() time.Time) *Handler {
	return &Handler{store: store, reg: reg, cache: cache, funnel: src, logger: logger, now: now}
}

// sender serializes writes; link deliveries arrive from lookup goroutines.
type sender struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func (s *sender) send(ctx context.Context, msg ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := wsjson.Write(ctx, s.conn, msg); err != nil {
		s.logger.Debug("wire write failed", zap.Error(err))
	}
}

func (s *sender) sendError(ctx context.Context, requestID, code, message string) {
	s.send(ctx, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}

// ServeHTTP upgrades to WebSocket and runs the message loop. One detail
// view is live per connection: opening a new detail closes the previous
// resolution session, so its late lookups are discarded.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	snd := &sender{conn: conn, logger: h.logger}

	var sess *resolve.Session
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}

		switch msg.Type {
		case "detail":
			if sess != nil {
				sess.Close()
			}
			sess = resolve.NewSession(h.store, h.reg, h.logger)
			h.handleDetail(ctx, snd, sess, msg)
		case "search":
			h.handleSearch(ctx, snd, msg)
		case "analytics":
			h.handleAnalytics(ctx, snd, msg)
		case "ping":
			snd.send(ctx, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			snd.sendError(ctx, msg.ID, "unknown_type", "unknown message type: "+msg.Type)
		}
	}
}

// handleDetail sends the rendered detail immediately with links pending,
// then streams "links" messages as each field's lookup completes.
func (h *Handler) handleDetail(ctx context.Context, snd *sender, sess *resolve.Session, msg ClientMessage) {
	var data DetailData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		snd.sendError(ctx, msg.ID, "invalid_data", "invalid detail data")
		return
	}
	es, ok := h.reg.Schema(data.Kind)
	if !ok {
		snd.sendError(ctx, msg.ID, "unknown_kind", "unknown entity kind: "+data.Kind)
		return
	}

	records, err := h.store.FetchByIDs(ctx, data.Kind, []string{data.ID})
	if err != nil {
		snd.sendError(ctx, msg.ID, "store_error", err.Error())
		return
	}
	if len(records) == 0 {
		snd.sendError(ctx, msg.ID, "not_found", "record not found")
		return
	}
	rec := records[0]

	snd.send(ctx, ServerMessage{
		Type:      "detail",
		RequestID: msg.ID,
		Data:      render.RenderDetail(es, rec, render.Context{}),
	})

	go func() {
		sess.ResolveEach(ctx, rec, es.LinkedFields(), func(field string, refs []resolve.Ref) {
			snd.send(ctx, ServerMessage{
				Type:      "links",
				RequestID: msg.ID,
				Data:      LinksData{Field: field, Refs: refs},
			})
		})
		snd.send(ctx, ServerMessage{Type: "done", RequestID: msg.ID})
	}()
}

func (h *Handler) handleSearch(ctx context.Context, snd *sender, msg ClientMessage) {
	var data SearchData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		snd.sendError(ctx, msg.ID, "invalid_data", "invalid search data")
		return
	}
	snd.send(ctx, ServerMessage{
		Type:      "results",
		RequestID: msg.ID,
		Data:      h.cache.Search(data.Query, data.Excluding),
	})
}

func (h *Handler) handleAnalytics(ctx context.Context, snd *sender, msg ClientMessage) {
	var data AnalyticsData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		snd.sendError(ctx, msg.ID, "invalid_data", "invalid analytics data")
		return
	}
	es, ok := h.reg.Schema(data.Kind)
	if !ok {
		snd.sendError(ctx, msg.ID, "unknown_kind", "unknown entity kind: "+data.Kind)
		return
	}

	if data.Range == "" {
		data.Range = string(analytics.RangeAll)
	}
	if data.Granularity == "" {
		data.Granularity = string(analytics.ByDay)
	}

	records, err := h.store.FetchCollection(ctx, data.Kind)
	if err != nil {
		snd.sendError(ctx, msg.ID, "store_error", err.Error())
		return
	}
	h.cache.Snapshot(data.Kind, records)

	now := h.now()
	payload := map[string]any{
		"summary": analytics.Summarize(es, records, analytics.DateRange(data.Range), now),
		"trend":   analytics.BuildTrend(records, analytics.Granularity(data.Granularity), now),
	}
	if es.Kind == "signup" && h.funnel != nil {
		if counts, err := h.funnel.StageCounts(ctx); err == nil {
			payload["funnel"] = analytics.BuildFunnel(counts)
		}
	}
	snd.send(ctx, ServerMessage{Type: "analytics", RequestID: msg.ID, Data: payload})
}
