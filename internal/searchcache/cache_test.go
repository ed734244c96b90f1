package searchcache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantrylabs/console/internal/storage"
)

func newTestCache() *Cache {
	c := New([]string{"ingredient", "recipe", "signup"})
	c.Snapshot("ingredient", []storage.Record{
		{"id": "i1", "name": "Spinach", "category": "produce"},
		{"id": "i2", "name": "Sea Salt", "alt_name": "sodium chloride"},
	})
	c.Snapshot("recipe", []storage.Record{
		{"id": "r1", "title": "Spinach Salad"},
		{"id": "r2", "title": "Salted Caramel"},
	})
	c.Snapshot("signup", []storage.Record{
		{"id": "s1", "email": "sal@example.com"},
	})
	return c
}

func TestSearchBlankQueryMatchesNothing(t *testing.T) {
	c := newTestCache()
	require.Nil(t, c.Search("", ""))
	require.Nil(t, c.Search("   ", ""))
}

func TestSearchCaseInsensitiveAcrossKinds(t *testing.T) {
	c := newTestCache()
	got := c.Search("SPINACH", "")
	require.Len(t, got, 2)
	require.Equal(t, "ingredient", got[0].Kind)
	require.Equal(t, "i1", got[0].ID)
	require.Equal(t, "recipe", got[1].Kind)
}

func TestSearchCapsAtFourCombined(t *testing.T) {
	c := newTestCache()
	// "sal" hits Sea Salt (alt_name), both recipes, and the signup email,
	// plus Spinach Salad — five candidates, capped at four.
	got := c.Search("sal", "")
	require.Len(t, got, 4)
	// Kind order is deterministic: ingredient results precede recipes.
	require.Equal(t, "ingredient", got[0].Kind)
}

func TestSearchExcludesKind(t *testing.T) {
	c := newTestCache()
	for _, m := range c.Search("sal", "recipe") {
		require.NotEqual(t, "recipe", m.Kind)
	}
}

func TestSnapshotOverwrites(t *testing.T) {
	c := newTestCache()
	c.Snapshot("ingredient", []storage.Record{{"id": "i9", "name": "Kale"}})
	require.Empty(t, c.Search("spinach", "recipe"))
	require.Len(t, c.Search("kale", ""), 1)
}
