// Package funnel supplies raw conversion-event counts to the aggregator.
// The real numbers come from an external event pipeline; when that pipeline
// is unavailable the EstimatedSource derives stage counts from the signup
// record set with fixed multiplicative ratios — a documented approximation,
// never presented as measurement.
package funnel

import "context"

// Stage names form the fixed funnel vocabulary.
const (
	StageViewedLanding  = "viewed_landing_page"
	StageBeganForm      = "began_form"
	StageSubmittedForm  = "submitted_form"
	StageConfirmed      = "confirmed"
	StageShared         = "shared"
	StageReferralOpened = "referral_link_opened"
	StageReferralSignup = "referral_signup_completed"
)

// StageOrder is the funnel sequence.
var StageOrder = []string{
	StageViewedLanding,
	StageBeganForm,
	StageSubmittedForm,
	StageConfirmed,
	StageShared,
	StageReferralOpened,
	StageReferralSignup,
}

// stageLabels are the operator-facing names.
var stageLabels = map[string]string{
	StageViewedLanding:  "Viewed landing page",
	StageBeganForm:      "Began form",
	StageSubmittedForm:  "Submitted form",
	StageConfirmed:      "Confirmed",
	StageShared:         "Shared",
	StageReferralOpened: "Referral link opened",
	StageReferralSignup: "Referral signup completed",
}

// Label returns the display label for a stage name.
func Label(stage string) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}
	return stage
}

// Stage is one measured (or estimated) funnel stage.
type Stage struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"count"`
	// MedianTransitionSeconds is the median time from the previous stage,
	// zero when unknown.
	MedianTransitionSeconds float64 `json:"median_transition_seconds,omitempty"`
}

// Counts is a full set of stage counts in funnel order.
type Counts struct {
	Stages []Stage `json:"stages"`
	// Estimated is true when the counts were derived from ratios rather
	// than measured events; consumers must label them as an estimate.
	Estimated bool `json:"estimated"`
}

// Source supplies stage counts.
type Source interface {
	StageCounts(ctx context.Context) (Counts, error)
}

// StaticSource returns a fixed, measured set of counts.
type StaticSource struct {
	Counts Counts
}

func (s StaticSource) StageCounts(context.Context) (Counts, error) {
	return s.Counts, nil
}

// estimation ratios relative to the submitted-signup count. These are
// unverified guesses carried over from the original launch dashboard, kept
// only as a fallback when no event pipeline is wired.
var estimateRatios = map[string]float64{
	StageViewedLanding:  3.2,
	StageBeganForm:      1.9,
	StageSubmittedForm:  1.0,
	StageConfirmed:      0.82,
	StageShared:         0.24,
	StageReferralOpened: 0.4,
	StageReferralSignup: 0.12,
}

// EstimatedSource approximates stage counts from the number of signup
// records. CountSignups is consulted on every call so the estimate tracks
// the live record set.
type EstimatedSource struct {
	CountSignups func(ctx context.Context) (int, error)
}

func (s EstimatedSource) StageCounts(ctx context.Context) (Counts, error) {
	n, err := s.CountSignups(ctx)
	if err != nil {
		return Counts{}, err
	}
	out := Counts{Estimated: true}
	for _, stage := range StageOrder {
		out.Stages = append(out.Stages, Stage{
			Name:  stage,
			Label: Label(stage),
			Count: int(float64(n) * estimateRatios[stage]),
		})
	}
	return out, nil
}
