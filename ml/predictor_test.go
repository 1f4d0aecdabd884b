package ml

import (
	"errors"
	"testing"
)

type identityScaler struct{}

func (identityScaler) Transform(vector []float64) ([]float64, error) {
	return vector, nil
}

type constantModel struct {
	value float64
	err   error
}

func (m *constantModel) Predict(vector []float64) (float64, error) {
	return m.value, m.err
}

func TestPredictConstantModel(t *testing.T) {
	service := NewPredictionService(identityScaler{}, &constantModel{value: 2500})

	result, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value != 2500 {
		t.Fatalf("expected value 2500, got %v", result.Value)
	}
	if result.Level != PowerModerate {
		t.Fatalf("expected moderate, got %s", result.Level)
	}
	if result.Color != "#f4c542" {
		t.Fatalf("expected #f4c542, got %s", result.Color)
	}
}

func TestPredictIdempotent(t *testing.T) {
	service := NewPredictionService(identityScaler{}, &constantModel{value: 4100})

	first, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestPredictMissingFeature(t *testing.T) {
	service := NewPredictionService(identityScaler{}, &constantModel{value: 100})

	inputs := validInputs()
	delete(inputs, FeatureHumidity)

	_, err := service.Predict(inputs)
	var missing *MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFeatureError, got %v", err)
	}
}

func TestPredictModelFailure(t *testing.T) {
	modelErr := errors.New("corrupt node")
	service := NewPredictionService(identityScaler{}, &constantModel{err: modelErr})

	result, err := service.Predict(validInputs())
	var inference *InferenceError
	if !errors.As(err, &inference) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
	if !errors.Is(err, modelErr) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
	if result != (PredictionResult{}) {
		t.Fatalf("expected zero result on failure, got %+v", result)
	}
}

func TestPredictCacheAndSwap(t *testing.T) {
	model := &constantModel{value: 1500}
	service := NewPredictionService(identityScaler{}, model)
	if err := service.EnableCache(16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Level != PowerLow {
		t.Fatalf("expected low, got %s", first.Level)
	}

	// swapped artifacts must not serve memoized results
	service.Swap(identityScaler{}, &constantModel{value: 4500})
	second, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Value != 4500 || second.Level != PowerHigh {
		t.Fatalf("expected fresh high result after swap, got %+v", second)
	}
}

// gatedModel blocks its single Predict call until released, so a test can
// interleave a Swap with an in-flight prediction.
type gatedModel struct {
	value   float64
	entered chan struct{}
	release chan struct{}
}

func (m *gatedModel) Predict(vector []float64) (float64, error) {
	close(m.entered)
	<-m.release
	return m.value, nil
}

func TestSwapDuringInflightPredict(t *testing.T) {
	old := &gatedModel{
		value:   1500,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := NewPredictionService(identityScaler{}, old)
	if err := service.EnableCache(16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := service.Predict(validInputs())
		done <- err
	}()

	// swap lands while the first prediction is still inside the old model
	<-old.entered
	service.Swap(identityScaler{}, &constantModel{value: 4500})
	close(old.release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the in-flight old-pair result must not be served from the cache
	result, err := service.Predict(validInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value != 4500 || result.Level != PowerHigh {
		t.Fatalf("expected post-swap result, got %+v", result)
	}
}
