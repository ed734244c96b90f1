// Package wire defines the console's WebSocket protocol and its handler.
// The wire surface mirrors the REST API for interactive clients, with one
// addition: linked-entity references stream in incrementally as field
// lookups complete, so a detail view renders before every link resolves.
package wire

import (
	"encoding/json"

	"github.com/pantrylabs/console/internal/resolve"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string          `json:"type"` // "detail", "search", "analytics", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// DetailData is the payload for "detail" messages.
type DetailData struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// SearchData is the payload for "search" messages.
type SearchData struct {
	Query     string `json:"query"`
	Excluding string `json:"excluding,omitempty"`
}

// AnalyticsData is the payload for "analytics" messages.
type AnalyticsData struct {
	Kind        string `json:"kind"`
	Range       string `json:"range,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "detail", "links", "done", "results", "analytics", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// LinksData carries one resolved linked-entity field.
type LinksData struct {
	Field string        `json:"field"`
	Refs  []resolve.Ref `json:"refs"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
