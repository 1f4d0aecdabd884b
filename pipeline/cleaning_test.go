package pipeline

import (
	"math"
	"testing"

	"solarcast/ml"
)

func observation(power float64) Observation {
	features := make(map[string]float64, ml.FeatureCount)
	for i, name := range ml.FeatureNames() {
		features[name] = float64(i + 1)
	}
	return Observation{Features: features, Power: power}
}

func TestCleanRejectsNaN(t *testing.T) {
	bad := observation(100)
	bad.Features[ml.FeatureHumidity] = math.NaN()

	cleaner := NewDataCleaner()
	cleaned, issues := cleaner.Clean([]Observation{observation(100), bad})
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 clean row, got %d", len(cleaned))
	}
	if len(issues) != 1 || issues[0].Rule != "finite_values" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestCleanRejectsNegativePower(t *testing.T) {
	cleaner := NewDataCleaner()
	cleaned, issues := cleaner.Clean([]Observation{observation(-5)})
	if len(cleaned) != 0 {
		t.Fatalf("expected rejection, got %d rows", len(cleaned))
	}
	if len(issues) != 1 || issues[0].Rule != "non_negative_power" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestCleanRejectsDuplicates(t *testing.T) {
	row := observation(250)
	cleaner := NewDataCleaner()
	cleaned, issues := cleaner.Clean([]Observation{row, row})
	if len(cleaned) != 1 {
		t.Fatalf("expected duplicate dropped, got %d rows", len(cleaned))
	}
	if len(issues) != 1 || issues[0].Rule != "duplicate_row" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestCleanStats(t *testing.T) {
	bad := observation(300)
	bad.Power = math.Inf(1)

	cleaner := NewDataCleaner()
	cleaner.Clean([]Observation{observation(100), observation(200), bad})

	stats := cleaner.Stats()
	if stats.TotalProcessed != 3 || stats.Passed != 2 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Issues["finite_values"] != 1 {
		t.Fatalf("expected finite_values issue recorded, got %+v", stats.Issues)
	}
}
