package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"solarcast/db"
	"solarcast/ml"
	"solarcast/monitoring"
)

var (
	predictionService *ml.PredictionService
	liveHub           *monitoring.LiveHub
	predictionStats   *monitoring.PredictionStats
)

// swappable in tests so handlers run without a database
var (
	savePredictionRecord = db.SavePrediction
	queryPredictions     = db.QueryPredictions
	loadTrainingLog      = db.LoadTrainingLog
)

func SetPredictionService(service *ml.PredictionService) { predictionService = service }

func SetLiveHub(hub *monitoring.LiveHub) { liveHub = hub }

func SetPredictionStats(stats *monitoring.PredictionStats) { predictionStats = stats }

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/features", handleFeatures)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/history", handleHistory)
	mux.HandleFunc("GET /api/stats", handleStats)
	mux.HandleFunc("GET /api/training/log", handleTrainingLog)
	mux.HandleFunc("GET /api/ws/live", handleLiveStream)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func handleFeatures(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"order":  ml.FeatureNames(),
		"fields": formFields(),
	})
}

type predictResponse struct {
	Value     float64       `json:"value"`
	Display   string        `json:"display"`
	Level     ml.PowerLevel `json:"level"`
	Color     string        `json:"color"`
	Trend     []float64     `json:"trend"`
	Timestamp time.Time     `json:"timestamp"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if predictionService == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction service not initialized")
		return
	}

	var inputs map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := predictionService.Predict(inputs)
	if err != nil {
		var missing *ml.MissingFeatureError
		if errors.As(err, &missing) {
			respondError(w, http.StatusBadRequest, missing.Error())
			return
		}
		zap.S().Errorw("predict failed", "error", err, "request_id", GetRequestID(r.Context()))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if predictionStats != nil {
		predictionStats.Record(string(result.Level), result.Value)
	}
	if liveHub != nil {
		liveHub.BroadcastPrediction(monitoring.PredictionEvent{
			Value: result.Value,
			Level: string(result.Level),
			Color: result.Color,
		})
	}
	if err := savePredictionRecord(db.PredictionRecord{
		Inputs: inputs,
		Value:  result.Value,
		Level:  string(result.Level),
		Color:  result.Color,
	}); err != nil {
		// history is best-effort, the prediction itself already succeeded
		zap.S().Warnw("failed to save prediction", "error", err)
	}

	respondJSON(w, predictResponse{
		Value:     result.Value,
		Display:   formatPower(result.Value),
		Level:     result.Level,
		Color:     result.Color,
		Trend:     trendSeries(result.Value),
		Timestamp: time.Now().UTC(),
	})
}

const (
	historyLimitDefault = 50
	historyLimitMax     = 500
)

func handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := historyLimitDefault
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > historyLimitMax {
		limit = historyLimitMax
	}

	records, err := queryPredictions(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, map[string]interface{}{
		"predictions": records,
		"limit":       limit,
	})
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	if predictionStats == nil {
		respondError(w, http.StatusServiceUnavailable, "stats not initialized")
		return
	}
	respondJSON(w, predictionStats.Snapshot())
}

func handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	logs, err := loadTrainingLog()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, map[string]interface{}{"training_log": logs})
}

func handleLiveStream(w http.ResponseWriter, r *http.Request) {
	if liveHub == nil {
		respondError(w, http.StatusServiceUnavailable, "live stream not initialized")
		return
	}
	liveHub.ServeWS(w, r)
}

// trendSeries mirrors the comparison sparkline on the form page: two
// scaled-down points leading up to the prediction itself.
func trendSeries(value float64) []float64 {
	return []float64{value * 0.8, value * 0.9, value}
}

var powerPrinter = message.NewPrinter(language.English)

// formatPower renders the estimate with thousands separators for display.
// Purely cosmetic; callers may ignore it.
func formatPower(value float64) string {
	return powerPrinter.Sprintf("%.0f", value)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Warnw("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
