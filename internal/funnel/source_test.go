package funnel

import (
	"context"
	"errors"
	"testing"
)

func TestStaticSource(t *testing.T) {
	want := Counts{Stages: []Stage{{Name: StageConfirmed, Label: Label(StageConfirmed), Count: 42}}}
	got, err := StaticSource{Counts: want}.StageCounts(context.Background())
	if err != nil {
		t.Fatalf("StageCounts: %v", err)
	}
	if got.Estimated {
		t.Error("static counts must not be flagged estimated")
	}
	if len(got.Stages) != 1 || got.Stages[0].Count != 42 {
		t.Errorf("unexpected stages: %+v", got.Stages)
	}
}

func TestEstimatedSource(t *testing.T) {
	src := EstimatedSource{CountSignups: func(context.Context) (int, error) { return 50, nil }}
	got, err := src.StageCounts(context.Background())
	if err != nil {
		t.Fatalf("StageCounts: %v", err)
	}
	if !got.Estimated {
		t.Error("derived counts must carry the estimated flag")
	}
	if len(got.Stages) != len(StageOrder) {
		t.Fatalf("got %d stages, want %d", len(got.Stages), len(StageOrder))
	}
	for i, stage := range got.Stages {
		if stage.Name != StageOrder[i] {
			t.Errorf("stage %d = %s, want %s", i, stage.Name, StageOrder[i])
		}
	}
	// submitted_form carries ratio 1.0, so it equals the signup count.
	if got.Stages[2].Count != 50 {
		t.Errorf("submitted_form = %d, want 50", got.Stages[2].Count)
	}
	if got.Stages[0].Count != 160 {
		t.Errorf("viewed_landing_page = %d, want 160", got.Stages[0].Count)
	}
}

func TestEstimatedSourcePropagatesError(t *testing.T) {
	boom := errors.New("store down")
	src := EstimatedSource{CountSignups: func(context.Context) (int, error) { return 0, boom }}
	if _, err := src.StageCounts(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestLabelFallsBackToName(t *testing.T) {
	if Label("mystery_stage") != "mystery_stage" {
		t.Error("unknown stage should label as itself")
	}
}
