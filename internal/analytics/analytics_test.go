package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pantrylabs/console/internal/funnel"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

var testSchema = &schema.EntitySchema{
	Kind:      "ingredient",
	Label:     "Ingredient",
	NameField: "name",
	Fields: []schema.FieldSpec{
		{Key: "name", Label: "Name", Kind: schema.KindText},
		{Key: "category", Label: "Category", Kind: schema.KindEnum},
		{Key: "nutrition", Label: "Nutrition", Kind: schema.KindStructuredObject},
		{Key: "description", Label: "Description", Kind: schema.KindLongText},
		{Key: "hazards", Label: "Hazards", Kind: schema.KindStructuredList},
		{Key: "image", Label: "Image", Kind: schema.KindImageReference},
		{Key: "created_at", Label: "Created", Kind: schema.KindTimestamp},
	},
	CoreFields:       []string{"name", "category", "nutrition"},
	EnrichmentFields: []string{"description", "hazards", "image"},
}

func TestIsComplete_MissingOneCoreFieldIsNeverComplete(t *testing.T) {
	complete := storage.Record{
		"name": "Spinach", "category": "produce",
		"nutrition": map[string]any{"calories": 23.0},
	}
	require.True(t, IsComplete(testSchema, complete))

	missingOne := complete.Clone()
	delete(missingOne, "category")
	require.False(t, IsComplete(testSchema, missingOne))

	emptyString := complete.Clone()
	emptyString["category"] = ""
	require.False(t, IsComplete(testSchema, emptyString))
}

func TestIsEnriched_HalfRoundedUp(t *testing.T) {
	// 3 enrichment fields: need ceil(3/2) = 2 populated.
	rec := storage.Record{"description": "leafy green"}
	require.False(t, IsEnriched(testSchema, rec))

	rec["image"] = "spinach.png"
	require.True(t, IsEnriched(testSchema, rec))
}

func TestCompleteButNotEnriched(t *testing.T) {
	rec := storage.Record{
		"name": "Spinach", "category": "produce",
		"nutrition": map[string]any{"calories": 23.0},
	}
	require.True(t, IsComplete(testSchema, rec))
	require.False(t, IsEnriched(testSchema, rec))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	records := []storage.Record{
		{
			"id": "1", "name": "Spinach", "category": "produce",
			"nutrition":   map[string]any{"calories": 23.0},
			"description": "leafy", "image": "s.png",
			"created_at": "2026-08-27T10:00:00Z",
		},
		{
			"id": "2", "name": "Mystery",
			"created_at": "2026-08-26T10:00:00Z",
		},
		{
			// Outside the week range, excluded from counts.
			"id": "3", "name": "Old", "category": "produce",
			"nutrition":  map[string]any{"calories": 1.0},
			"created_at": "2026-01-01T10:00:00Z",
		},
	}

	s := Summarize(testSchema, records, RangeWeek, now)
	require.Equal(t, 2, s.Total)
	require.Equal(t, 1, s.Complete)
	require.Equal(t, 50.0, s.CompletePct)
	require.Equal(t, 1, s.WithImage)
	require.Equal(t, 1, s.Enriched)

	require.Len(t, s.EnrichmentFields, 3)
	byKey := map[string]FieldCoverage{}
	for _, fc := range s.EnrichmentFields {
		byKey[fc.Key] = fc
	}
	require.Equal(t, 50.0, byKey["description"].Percent)
	require.Equal(t, 0.0, byKey["hazards"].Percent)

	all := Summarize(testSchema, records, RangeAll, now)
	require.Equal(t, 3, all.Total)
}

func TestSummarize_EmptySet(t *testing.T) {
	s := Summarize(testSchema, nil, RangeAll, time.Now())
	require.Zero(t, s.Total)
	require.Zero(t, s.CompletePct)
}

func TestBuildFunnel_ZeroDenominatorIsZeroPercent(t *testing.T) {
	counts := funnel.Counts{Stages: []funnel.Stage{
		{Name: "a", Label: "A", Count: 0},
		{Name: "b", Label: "B", Count: 5},
	}}
	f := BuildFunnel(counts)
	require.Len(t, f.Steps, 2)
	require.Equal(t, 0.0, f.Steps[1].ConversionPct)
}

func TestBuildFunnel_ConversionChain(t *testing.T) {
	counts := funnel.Counts{Stages: []funnel.Stage{
		{Name: "viewed", Label: "Viewed", Count: 200},
		{Name: "began", Label: "Began", Count: 100},
		{Name: "submitted", Label: "Submitted", Count: 25},
	}}
	f := BuildFunnel(counts)
	require.Equal(t, 100.0, f.Steps[0].ConversionPct)
	require.Equal(t, 50.0, f.Steps[1].ConversionPct)
	require.Equal(t, 100, f.Steps[2].ComparisonBase)
	require.Equal(t, 25.0, f.Steps[2].ConversionPct)
	require.False(t, f.Estimated)
}

func TestBuildFunnel_CarriesEstimatedFlag(t *testing.T) {
	src := funnel.EstimatedSource{CountSignups: func(context.Context) (int, error) { return 100, nil }}
	counts, err := src.StageCounts(context.Background())
	require.NoError(t, err)
	require.True(t, counts.Estimated)

	f := BuildFunnel(counts)
	require.True(t, f.Estimated)
	require.Equal(t, 320, f.Steps[0].Count, "page views estimated at 3.2x signups")
}

func recAt(ts string) storage.Record {
	return storage.Record{"id": ts, "created_at": ts}
}

func TestBuildTrend_BucketsAndGrowth(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	records := []storage.Record{
		recAt("2026-08-26T09:00:00Z"),
		recAt("2026-08-27T09:00:00Z"),
		recAt("2026-08-27T17:00:00Z"),
		recAt("2026-08-28T01:00:00Z"),
	}

	tr := BuildTrend(records, ByDay, now)
	require.Len(t, tr.Buckets, 3)
	require.Equal(t, "2026-08-27", tr.Buckets[1].Key)
	require.Equal(t, 2, tr.Buckets[1].Count)
	require.Equal(t, 100.0, tr.Buckets[1].HeightPct)
	require.Equal(t, 50.0, tr.Buckets[0].HeightPct)

	// now-bucket has 1, previous day has 2: growth -50%.
	require.Equal(t, -50.0, tr.GrowthPct)
}

func TestBuildTrend_KeepsLastEightNonEmptyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	var records []storage.Record
	for day := 1; day <= 12; day++ {
		records = append(records, recAt(time.Date(2026, 8, day, 8, 0, 0, 0, time.UTC).Format(time.RFC3339)))
	}

	tr := BuildTrend(records, ByDay, now)
	require.Len(t, tr.Buckets, 8)
	require.Equal(t, "2026-08-05", tr.Buckets[0].Key, "oldest buckets fall out of the window")
}

func TestBuildTrend_GrowthFromEmptyPreviousBucket(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tr := BuildTrend([]storage.Record{recAt("2026-08-28T00:30:00Z")}, ByDay, now)
	require.Equal(t, 100.0, tr.GrowthPct, "empty previous bucket with a non-empty current one is 100%")

	empty := BuildTrend(nil, ByDay, now)
	require.Equal(t, 0.0, empty.GrowthPct)
	require.Empty(t, empty.Buckets)
}

func TestBuildTrend_WeekTruncatesToMonday(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) // a Friday
	// Wednesday Aug 26 and Thursday Aug 27 share the week of Monday Aug 24.
	tr := BuildTrend([]storage.Record{
		recAt("2026-08-26T09:00:00Z"),
		recAt("2026-08-27T09:00:00Z"),
	}, ByWeek, now)
	require.Len(t, tr.Buckets, 1)
	require.Equal(t, "2026-08-24", tr.Buckets[0].Key)
	require.Equal(t, 2, tr.Buckets[0].Count)
}

func TestBuildTrend_MinimumHeight(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	var records []storage.Record
	for i := 0; i < 100; i++ {
		records = append(records, recAt("2026-08-27T09:00:00Z"))
	}
	records = append(records, recAt("2026-08-26T09:00:00Z"))

	tr := BuildTrend(records, ByDay, now)
	require.Equal(t, 2.0, tr.Buckets[0].HeightPct, "a 1% bucket floors at 2%")
}
