// Package searchcache keeps the most recently fetched record collections in
// memory so cross-kind search stays instant regardless of backend latency.
// The cache is passively populated: every collection fetch that flows
// through the server overwrites the snapshot for that kind.
package searchcache

import (
	"strings"
	"sync"

	"github.com/pantrylabs/console/internal/storage"
)

// maxResults caps a combined search across all kinds.
const maxResults = 4

// searchFields are the record keys matched against the query, in match
// priority order.
var searchFields = []string{"name", "alt_name", "email", "title", "category"}

// Match is one search hit.
type Match struct {
	Kind   string         `json:"kind"`
	ID     string         `json:"id"`
	Record storage.Record `json:"record"`
}

// Cache holds per-kind record snapshots behind a read-write lock.
type Cache struct {
	mu        sync.RWMutex
	kindOrder []string
	snapshots map[string][]storage.Record
}

// New builds a cache that searches kinds in the given order, which keeps
// results deterministic across identical snapshots.
func New(kindOrder []string) *Cache {
	return &Cache{
		kindOrder: append([]string(nil), kindOrder...),
		snapshots: make(map[string][]storage.Record),
	}
}

// Snapshot replaces the cached collection for a kind. Records are stored
// as-is; callers hand over ownership.
func (c *Cache) Snapshot(kind string, records []storage.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[kind] = records
}

// Search returns up to four case-insensitive substring matches across all
// cached kinds, skipping the excluded kind. A blank query matches nothing.
func (c *Cache) Search(query, excludeKind string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Match
	for _, kind := range c.kindOrder {
		if kind == excludeKind {
			continue
		}
		for _, rec := range c.snapshots[kind] {
			if !matches(rec, query) {
				continue
			}
			out = append(out, Match{Kind: kind, ID: rec.ID(), Record: rec})
			if len(out) == maxResults {
				return out
			}
		}
	}
	return out
}

func matches(rec storage.Record, query string) bool {
	for _, key := range searchFields {
		s, ok := rec[key].(string)
		if ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}
