package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// StandardScaler standardizes features to zero mean and unit variance,
// matching the transform fitted during training.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-column mean and standard deviation from training vectors.
func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("feature vectors are empty")
	}

	mean := make([]float64, width)
	for _, row := range features {
		if len(row) != width {
			return errors.New("inconsistent feature vector length")
		}
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(features))
	}

	scale := make([]float64, width)
	for _, row := range features {
		for i, v := range row {
			diff := v - mean[i]
			scale[i] += diff * diff
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / float64(len(features)))
		// constant column scales to 1 so Transform is a no-op for it
		if scale[i] == 0 {
			scale[i] = 1
		}
	}

	s.Mean = mean
	s.Scale = scale
	return nil
}

// Transform standardizes a single vector using the fitted statistics.
func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(s.Mean) == 0 || len(s.Scale) == 0 {
		return nil, errors.New("scaler not fitted")
	}
	if len(vector) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(vector))
	}
	scaled := make([]float64, len(vector))
	for i, v := range vector {
		scaled[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return scaled, nil
}

func (s *StandardScaler) Save(path string) error {
	if len(s.Mean) == 0 {
		return errors.New("scaler not fitted")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (s *StandardScaler) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded StandardScaler
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	if len(loaded.Mean) != len(loaded.Scale) {
		return errors.New("scaler mean/scale length mismatch")
	}
	s.Mean = loaded.Mean
	s.Scale = loaded.Scale
	return nil
}

// LoadScaler loads a fitted scaler artifact from disk.
func LoadScaler(path string) (*StandardScaler, error) {
	scaler := &StandardScaler{}
	if err := scaler.Load(path); err != nil {
		return nil, err
	}
	return scaler, nil
}
