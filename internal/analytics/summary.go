// Package analytics computes derived views over a filtered record
// collection: completeness and enrichment scoring, conversion funnels, and
// date-bucketed trends. Everything here is pure given (records, clock) and
// is recomputed on every call; nothing is persisted.
package analytics

import (
	"time"

	"github.com/pantrylabs/console/internal/fieldval"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

// DateRange filters summary counts by record age. It never applies to the
// trend timeline, which always uses the full history so the trend shape
// stays stable while range controls change.
type DateRange string

const (
	RangeDay   DateRange = "day"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
	RangeAll   DateRange = "all"
)

// cutoff returns the inclusive lower bound for a range, ok=false for all.
func (r DateRange) cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeDay:
		return now.AddDate(0, 0, -1), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, -1, 0), true
	case RangeYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// FieldCoverage is the populated percentage for one enrichment field.
type FieldCoverage struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// Summary reports completeness and enrichment over a date-filtered set.
type Summary struct {
	Kind             string          `json:"kind"`
	Range            DateRange       `json:"range"`
	Total            int             `json:"total"`
	WithImage        int             `json:"with_image"`
	WithImagePct     float64         `json:"with_image_pct"`
	Complete         int             `json:"complete"`
	CompletePct      float64         `json:"complete_pct"`
	Enriched         int             `json:"enriched"`
	EnrichedPct      float64         `json:"enriched_pct"`
	EnrichmentFields []FieldCoverage `json:"enrichment_fields"`
}

// Summarize scores a record collection against its schema's core and
// enrichment field lists.
func Summarize(es *schema.EntitySchema, records []storage.Record, r DateRange, now time.Time) Summary {
	s := Summary{Kind: es.Kind, Range: r}

	filtered := records
	if cutoff, bounded := r.cutoff(now); bounded {
		filtered = nil
		for _, rec := range records {
			if t, ok := RecordTime(rec); ok && !t.Before(cutoff) {
				filtered = append(filtered, rec)
			}
		}
	}
	s.Total = len(filtered)

	imageFields := imageFieldKeys(es)
	coverage := make(map[string]int, len(es.EnrichmentFields))

	for _, rec := range filtered {
		if hasAny(rec, imageFields) {
			s.WithImage++
		}
		if IsComplete(es, rec) {
			s.Complete++
		}
		populated := 0
		for _, key := range es.EnrichmentFields {
			if !fieldval.IsEmpty(rec[key]) {
				coverage[key]++
				populated++
			}
		}
		if isEnrichedCount(populated, len(es.EnrichmentFields)) {
			s.Enriched++
		}
	}

	s.WithImagePct = pct(s.WithImage, s.Total)
	s.CompletePct = pct(s.Complete, s.Total)
	s.EnrichedPct = pct(s.Enriched, s.Total)

	for _, key := range es.EnrichmentFields {
		label := key
		if spec, ok := es.Field(key); ok {
			label = spec.Label
		}
		s.EnrichmentFields = append(s.EnrichmentFields, FieldCoverage{
			Key:     key,
			Label:   label,
			Percent: pct(coverage[key], s.Total),
		})
	}
	return s
}

// IsComplete reports whether every core field has data. A record missing
// even one core field is never complete.
func IsComplete(es *schema.EntitySchema, rec storage.Record) bool {
	for _, key := range es.CoreFields {
		if fieldval.IsEmpty(rec[key]) {
			return false
		}
	}
	return len(es.CoreFields) > 0
}

// IsEnriched reports whether at least half (rounded up, minimum 1) of the
// enrichment fields have data.
func IsEnriched(es *schema.EntitySchema, rec storage.Record) bool {
	populated := 0
	for _, key := range es.EnrichmentFields {
		if !fieldval.IsEmpty(rec[key]) {
			populated++
		}
	}
	return isEnrichedCount(populated, len(es.EnrichmentFields))
}

func isEnrichedCount(populated, declared int) bool {
	if declared == 0 {
		return false
	}
	need := (declared + 1) / 2
	if need < 1 {
		need = 1
	}
	return populated >= need
}

// RecordTime extracts a record's timestamp from the created_at field,
// tolerating time.Time values and common string encodings.
func RecordTime(rec storage.Record) (time.Time, bool) {
	v, ok := rec["created_at"]
	if !ok {
		return time.Time{}, false
	}
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, tv); err == nil {
				return t, true
			}
		}
	case float64:
		if tv > 1e9 {
			return time.Unix(int64(tv), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

func imageFieldKeys(es *schema.EntitySchema) []string {
	var keys []string
	for _, f := range es.Fields {
		if f.Kind == schema.KindImageReference {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func hasAny(rec storage.Record, keys []string) bool {
	for _, key := range keys {
		if !fieldval.IsEmpty(rec[key]) {
			return true
		}
	}
	return false
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
