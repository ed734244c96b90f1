package analytics

import (
	"fmt"

	"github.com/pantrylabs/console/internal/funnel"
)

// Step is one computed stage of a linear conversion funnel.
type Step struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	// ComparisonBase is the previous step's count — the denominator for
	// this step's conversion rate.
	ComparisonBase int     `json:"comparison_base"`
	ConversionPct  float64 `json:"conversion_pct"`
	SubLabel       string  `json:"sub_label,omitempty"`
}

// Funnel is the computed funnel plus its provenance.
type Funnel struct {
	Steps []Step `json:"steps"`
	// Estimated is carried through from the source so the console can
	// label derived numbers as an estimate, not a measurement.
	Estimated bool `json:"estimated"`
}

// BuildFunnel turns raw stage counts into a linear funnel where step n's
// denominator is step n−1's count. A zero denominator yields a 0%
// conversion rather than NaN or a division failure.
func BuildFunnel(counts funnel.Counts) Funnel {
	out := Funnel{Estimated: counts.Estimated}
	prev := 0
	for i, stage := range counts.Stages {
		step := Step{
			Label:          stage.Label,
			Count:          stage.Count,
			ComparisonBase: prev,
		}
		if i == 0 {
			step.ComparisonBase = stage.Count
			step.ConversionPct = 100
		} else if prev > 0 {
			step.ConversionPct = float64(stage.Count) / float64(prev) * 100
			step.SubLabel = fmt.Sprintf("%.1f%% from %s", step.ConversionPct, counts.Stages[i-1].Label)
		} else {
			step.ConversionPct = 0
			step.SubLabel = "no prior-stage volume"
		}
		if stage.MedianTransitionSeconds > 0 {
			step.SubLabel = fmt.Sprintf("%s · median %.0fs", step.SubLabel, stage.MedianTransitionSeconds)
		}
		out.Steps = append(out.Steps, step)
		prev = stage.Count
	}
	return out
}
