package analytics

import (
	"sort"
	"time"

	"github.com/pantrylabs/console/internal/storage"
)

// Granularity selects the trend bucket width.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

// trendWindow is how many non-empty buckets the trend keeps.
const trendWindow = 8

// minBarHeightPercent keeps small buckets visible.
const minBarHeightPercent = 2.0

// Bucket is one trend bar.
type Bucket struct {
	Key       string    `json:"key"`
	Start     time.Time `json:"start"`
	Count     int       `json:"count"`
	HeightPct float64   `json:"height_pct"`
}

// Trend is the date-bucketed record timeline.
type Trend struct {
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
	// GrowthPct compares the bucket containing now to the one before it.
	GrowthPct float64 `json:"growth_pct"`
}

// BuildTrend groups records into day, ISO-week, or month buckets, keeps the
// last 8 non-empty buckets, and scales bar heights to the window maximum
// with a 2% floor. The trend always uses the full unfiltered history.
func BuildTrend(records []storage.Record, g Granularity, now time.Time) Trend {
	counts := make(map[time.Time]int)
	for _, rec := range records {
		t, ok := RecordTime(rec)
		if !ok {
			continue
		}
		counts[truncate(t, g)]++
	}

	starts := make([]time.Time, 0, len(counts))
	for start := range counts {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	if len(starts) > trendWindow {
		starts = starts[len(starts)-trendWindow:]
	}

	maxCount := 0
	for _, start := range starts {
		if counts[start] > maxCount {
			maxCount = counts[start]
		}
	}

	out := Trend{Granularity: g}
	for _, start := range starts {
		height := 0.0
		if maxCount > 0 {
			height = float64(counts[start]) / float64(maxCount) * 100
		}
		if height < minBarHeightPercent {
			height = minBarHeightPercent
		}
		out.Buckets = append(out.Buckets, Bucket{
			Key:       bucketKey(start, g),
			Start:     start,
			Count:     counts[start],
			HeightPct: height,
		})
	}

	current := counts[truncate(now, g)]
	previous := counts[truncate(previousPeriod(now, g), g)]
	switch {
	case previous > 0:
		out.GrowthPct = float64(current-previous) / float64(previous) * 100
	case current > 0:
		out.GrowthPct = 100
	default:
		out.GrowthPct = 0
	}
	return out
}

// truncate maps a timestamp to its bucket start in UTC: midnight for days,
// Monday midnight for ISO weeks, the first of the month for months.
func truncate(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case ByWeek:
		day := t.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7 // Monday == 0
		return time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, time.UTC)
	case ByMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func previousPeriod(t time.Time, g Granularity) time.Time {
	switch g {
	case ByWeek:
		return t.AddDate(0, 0, -7)
	case ByMonth:
		return t.AddDate(0, -1, 0)
	default:
		return t.AddDate(0, 0, -1)
	}
}

func bucketKey(start time.Time, g Granularity) string {
	switch g {
	case ByMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}
