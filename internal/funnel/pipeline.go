package funnel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// PipelineSource fetches measured stage counts from the event pipeline's
// counts endpoint. The endpoint returns a JSON object mapping stage name to
// count; stages the pipeline has never seen report zero.
type PipelineSource struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewPipelineSource points a source at the pipeline counts URL.
func NewPipelineSource(url string, logger *zap.Logger) *PipelineSource {
	return &PipelineSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (s *PipelineSource) StageCounts(ctx context.Context) (Counts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("funnel: building request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Counts{}, fmt.Errorf("funnel: fetching stage counts: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Counts{}, fmt.Errorf("funnel: pipeline returned %d", resp.StatusCode)
	}

	var payload struct {
		Stages map[string]struct {
			Count                   int     `json:"count"`
			MedianTransitionSeconds float64 `json:"median_transition_seconds"`
		} `json:"stages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Counts{}, fmt.Errorf("funnel: decoding stage counts: %w", err)
	}

	out := Counts{}
	for _, stage := range StageOrder {
		measured := payload.Stages[stage]
		out.Stages = append(out.Stages, Stage{
			Name:                    stage,
			Label:                   Label(stage),
			Count:                   measured.Count,
			MedianTransitionSeconds: measured.MedianTransitionSeconds,
		})
	}
	return out, nil
}
