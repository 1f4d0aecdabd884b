package http

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"solarcast/db"
	"solarcast/ml"
)

// syntheticDataset writes a CSV where power tracks distance to solar noon,
// so a shallow tree can fit it.
func syntheticDataset(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(strings.Join(append(ml.FeatureNames(), "power-generated"), ","))
	b.WriteByte('\n')

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 120; i++ {
		distance := float64(i%12) / 12.0
		power := 5000 * (1 - distance)
		fmt.Fprintf(&b, "%.3f,%.1f,%d,%.1f,%d,%.1f,%.1f,%.1f,%.2f,%.1f\n",
			distance,
			50+rnd.Float64()*20,
			rnd.Intn(36)+1,
			rnd.Float64()*15,
			rnd.Intn(5),
			rnd.Float64()*10,
			20+rnd.Float64()*70,
			rnd.Float64()*20,
			29.5+rnd.Float64(),
			power,
		)
	}

	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestTrainModel(t *testing.T) {
	var logged []db.TrainingLog
	saveTrainingLog = func(entry db.TrainingLog) error {
		logged = append(logged, entry)
		return nil
	}
	defer func() { saveTrainingLog = db.SaveTrainingLog }()

	dir := t.TempDir()
	config := TrainingConfig{
		DatasetPath: syntheticDataset(t),
		ModelType:   "regression_tree",
		ModelPath:   filepath.Join(dir, "artifacts", "best_model.json"),
		ScalerPath:  filepath.Join(dir, "artifacts", "scaler.json"),
		TreeDepths:  []int{2, 4, 6},
		TestRatio:   0.2,
		Seed:        42,
	}

	result, samples, err := TrainModel(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if samples == 0 {
		t.Fatal("expected samples used")
	}
	if result.Depth != 2 && result.Depth != 4 && result.Depth != 6 {
		t.Fatalf("depth not from candidates: %d", result.Depth)
	}
	if len(logged) != 1 || logged[0].TreeDepth != result.Depth {
		t.Fatalf("training log not recorded: %+v", logged)
	}

	// the saved artifacts must load back into a working pair
	scaler, model, err := ml.LoadArtifacts("regression_tree", config.ModelPath, config.ScalerPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service := ml.NewPredictionService(scaler, model)
	result2, err := service.Predict(map[string]float64{
		"distance-to-solar-noon":      0.05,
		"temperature":                 60,
		"wind-direction":              25,
		"wind-speed":                  8,
		"sky-cover":                   1,
		"visibility":                  10,
		"humidity":                    50,
		"average-wind-speed-(period)": 10,
		"average-pressure-(period)":   30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2.Level != ml.PowerHigh && result2.Level != ml.PowerModerate {
		t.Fatalf("expected strong output near solar noon, got %+v", result2)
	}
}

func TestTrainModelMissingConfig(t *testing.T) {
	if _, _, err := TrainModel(TrainingConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	if _, _, err := TrainModel(TrainingConfig{DatasetPath: "x.csv"}); err == nil {
		t.Fatal("expected error for missing artifact paths")
	}
	if _, _, err := TrainModel(TrainingConfig{
		DatasetPath: "x.csv",
		ModelPath:   "m.json",
		ScalerPath:  "s.json",
		ModelType:   "linear",
	}); err == nil {
		t.Fatal("expected error for unsupported model type")
	}
}
