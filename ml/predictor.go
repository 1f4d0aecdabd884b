package ml

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// InferenceError wraps a failure raised by the injected scaler or model.
// Inference is deterministic, so these are never retried.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed during %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// PredictionResult is the complete outcome of one predict call.
type PredictionResult struct {
	Value float64    `json:"value"`
	Level PowerLevel `json:"level"`
	Color string     `json:"color"`
}

// PredictionService produces a PredictionResult from named weather inputs.
// It owns the fixed feature ordering and delegates scaling and inference to
// the injected artifacts.
type PredictionService struct {
	mu     sync.RWMutex
	scaler Scaler
	model  Regressor

	cache     *lru.Cache[string, PredictionResult]
	cacheSize int
}

func NewPredictionService(scaler Scaler, model Regressor) *PredictionService {
	return &PredictionService{scaler: scaler, model: model}
}

// EnableCache memoizes recent results. Predict is a pure function of its
// inputs and the artifact pair, so a hit returns a bit-identical result.
func (s *PredictionService) EnableCache(size int) error {
	cache, err := lru.New[string, PredictionResult](size)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cache = cache
	s.cacheSize = size
	s.mu.Unlock()
	return nil
}

// Swap replaces the scaler/model pair and drops memoized results. The old
// cache instance is abandoned rather than purged: a prediction still in
// flight against the old pair finishes into the orphan, so its result can
// never be served after the swap.
func (s *PredictionService) Swap(scaler Scaler, model Regressor) {
	s.mu.Lock()
	s.scaler = scaler
	s.model = model
	if s.cache != nil {
		if fresh, err := lru.New[string, PredictionResult](s.cacheSize); err == nil {
			s.cache = fresh
		}
	}
	s.mu.Unlock()
}

// Predict assembles the ordered vector, scales it, runs inference and
// classifies the estimate. It either returns a complete result or fails.
func (s *PredictionService) Predict(inputs map[string]float64) (PredictionResult, error) {
	vector, err := AssembleVector(inputs)
	if err != nil {
		return PredictionResult{}, err
	}

	s.mu.RLock()
	scaler := s.scaler
	model := s.model
	cache := s.cache
	s.mu.RUnlock()

	var key string
	if cache != nil {
		key = cacheKey(vector)
		if result, ok := cache.Get(key); ok {
			return result, nil
		}
	}

	scaled, err := scaler.Transform(vector)
	if err != nil {
		return PredictionResult{}, &InferenceError{Stage: "scaling", Err: err}
	}
	value, err := model.Predict(scaled)
	if err != nil {
		return PredictionResult{}, &InferenceError{Stage: "prediction", Err: err}
	}

	level, color := Classify(value)
	result := PredictionResult{Value: value, Level: level, Color: color}
	if cache != nil {
		cache.Add(key, result)
	}
	return result, nil
}

func cacheKey(vector []float64) string {
	var b strings.Builder
	for i, v := range vector {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.FormatFloat(v, 'b', -1, 64))
	}
	return b.String()
}
