package ml

import (
	"path/filepath"
	"testing"
)

func TestRegressionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	targets := []float64{1000, 1000, 5000, 5000}

	model := NewRegressionTree(2)
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	low, err := model.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low != 1000 {
		t.Fatalf("expected 1000, got %v", low)
	}

	high, err := model.Predict([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 5000 {
		t.Fatalf("expected 5000, got %v", high)
	}
}

func TestRegressionTreeUntrained(t *testing.T) {
	model := &RegressionTree{}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatal("expected error for untrained model")
	}
	if err := model.Save(filepath.Join(t.TempDir(), "model.json")); err == nil {
		t.Fatal("expected error saving untrained model")
	}
}

func TestRegressionTreeSaveLoad(t *testing.T) {
	model := NewRegressionTree(3)
	err := model.Train([][]float64{{0}, {1}, {2}, {3}}, []float64{10, 10, 90, 90})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadModel("regression_tree", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := loaded.Predict([]float64{0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
}

func TestLoadModelUnsupportedType(t *testing.T) {
	if _, err := LoadModel("linear", "nowhere.json"); err == nil {
		t.Fatal("expected error for unsupported model type")
	}
}
