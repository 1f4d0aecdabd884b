package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solarcast/db"
	"solarcast/ml"
)

type fakeScaler struct{}

func (fakeScaler) Transform(vector []float64) ([]float64, error) {
	return vector, nil
}

type fakeModel struct {
	value float64
	err   error
}

func (f *fakeModel) Predict(vector []float64) (float64, error) {
	return f.value, f.err
}

func validBody() string {
	return `{
        "distance-to-solar-noon": 0.1,
        "temperature": 68,
        "wind-direction": 25,
        "wind-speed": 8.5,
        "sky-cover": 2,
        "visibility": 10,
        "humidity": 60,
        "average-wind-speed-(period)": 9.2,
        "average-pressure-(period)": 29.85
    }`
}

func setupPredict(t *testing.T, model *fakeModel) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	RegisterHandlers(mux)
	SetPredictionService(ml.NewPredictionService(fakeScaler{}, model))

	var saved []db.PredictionRecord
	savePredictionRecord = func(record db.PredictionRecord) error {
		saved = append(saved, record)
		return nil
	}
	t.Cleanup(func() {
		SetPredictionService(nil)
		savePredictionRecord = db.SavePrediction
	})
	return mux
}

func TestHandlePredict(t *testing.T) {
	mux := setupPredict(t, &fakeModel{value: 2500})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(validBody()))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Value != 2500 {
		t.Fatalf("unexpected value: %v", payload.Value)
	}
	if payload.Level != ml.PowerModerate {
		t.Fatalf("unexpected level: %s", payload.Level)
	}
	if payload.Color != "#f4c542" {
		t.Fatalf("unexpected color: %s", payload.Color)
	}
	if payload.Display != "2,500" {
		t.Fatalf("unexpected display: %q", payload.Display)
	}
	if len(payload.Trend) != 3 || payload.Trend[2] != 2500 {
		t.Fatalf("unexpected trend: %v", payload.Trend)
	}
}

func TestHandlePredictMissingFeature(t *testing.T) {
	mux := setupPredict(t, &fakeModel{value: 2500})

	body := `{"temperature": 68}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing feature") {
		t.Fatalf("expected missing feature error, got %s", w.Body.String())
	}
}

func TestHandlePredictModelFailure(t *testing.T) {
	mux := setupPredict(t, &fakeModel{err: errors.New("corrupt node")})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(validBody()))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandlePredictInvalidBody(t *testing.T) {
	mux := setupPredict(t, &fakeModel{value: 100})

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
