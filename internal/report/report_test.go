package report

import (
	"math"
	"testing"

	"peaktrade/internal/engine"
	"peaktrade/internal/walkforward"
)

func window(score, totalReturn float64) walkforward.WindowResult {
	return walkforward.WindowResult{
		TestScore: score,
		TestStats: engine.Stats{TotalReturn: totalReturn},
	}
}

func TestSummarize(t *testing.T) {
	windows := []walkforward.WindowResult{
		window(1.0, 0.05),
		window(2.0, -0.02),
		window(3.0, 0.10),
	}

	s := Summarize(windows)

	if s.Windows != 3 {
		t.Errorf("Windows = %d, want 3", s.Windows)
	}
	if s.MeanTestScore != 2.0 {
		t.Errorf("MeanTestScore = %v, want 2.0", s.MeanTestScore)
	}
	if math.Abs(s.StdTestScore-1.0) > 1e-12 {
		t.Errorf("StdTestScore = %v, want 1.0", s.StdTestScore)
	}
	if math.Abs(s.ShareProfitable-2.0/3.0) > 1e-12 {
		t.Errorf("ShareProfitable = %v, want 2/3", s.ShareProfitable)
	}
	if s.WorstTestScore != 1.0 || s.BestTestScore != 3.0 {
		t.Errorf("worst/best = %v/%v, want 1.0/3.0", s.WorstTestScore, s.BestTestScore)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("empty input should yield zero summary, got %+v", s)
	}
}

func TestSummarizeSingleWindow(t *testing.T) {
	s := Summarize([]walkforward.WindowResult{window(1.5, 0.01)})
	if s.StdTestScore != 0 {
		t.Errorf("single window std = %v, want 0", s.StdTestScore)
	}
	if s.ShareProfitable != 1 {
		t.Errorf("ShareProfitable = %v, want 1", s.ShareProfitable)
	}
}
