package walkforward

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// artifact is the JSON shape persisted after a multi-candidate search. Scores
// are pointers so non-finite values serialize as null instead of failing the
// encoder.
type artifact struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Metric      string           `json:"metric"`
	Windows     []artifactWindow `json:"windows"`
}

type artifactWindow struct {
	TrainStart int                `json:"train_start"`
	TrainEnd   int                `json:"train_end"`
	TestStart  int                `json:"test_start"`
	TestEnd    int                `json:"test_end"`
	Params     map[string]float64 `json:"params"`
	TrainScore *float64           `json:"train_score"`
	TestScore  *float64           `json:"test_score"`
}

func writeArtifact(dir, metric string, results []WindowResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	art := artifact{
		GeneratedAt: time.Now().UTC(),
		Metric:      metric,
		Windows:     make([]artifactWindow, len(results)),
	}
	for i, r := range results {
		art.Windows[i] = artifactWindow{
			TrainStart: r.Window.TrainStart,
			TrainEnd:   r.Window.TrainEnd,
			TestStart:  r.Window.TestStart,
			TestEnd:    r.Window.TestEnd,
			Params:     r.Params,
			TrainScore: finiteOrNil(r.TrainScore),
			TestScore:  finiteOrNil(r.TestScore),
		}
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding artifact: %w", err)
	}

	name := fmt.Sprintf("walkforward_%s.json", art.GeneratedAt.Format("20060102T150405Z"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
