package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"solarcast/db"
	"solarcast/ml"
	"solarcast/pipeline"
)

// TrainingConfig drives the retrain endpoint and the train command.
type TrainingConfig struct {
	DatasetPath string
	ModelType   string
	ModelPath   string
	ScalerPath  string
	TreeDepths  []int
	TestRatio   float64
	Seed        int64
}

var trainingConfig TrainingConfig

var saveTrainingLog = db.SaveTrainingLog

func SetTrainingConfig(config TrainingConfig) {
	trainingConfig = config
}

func RegisterTrainingHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/train", handleTrain)
}

func handleTrain(w http.ResponseWriter, r *http.Request) {
	if trainingConfig.DatasetPath == "" {
		respondError(w, http.StatusServiceUnavailable, "training not configured")
		return
	}

	start := time.Now()
	result, samples, err := TrainModel(trainingConfig)
	if err != nil {
		zap.S().Errorw("training failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, map[string]interface{}{
		"depth":       result.Depth,
		"mae":         result.Metrics.MAE,
		"rmse":        result.Metrics.RMSE,
		"data_points": samples,
		"duration":    time.Since(start).String(),
		"model_path":  trainingConfig.ModelPath,
		"scaler_path": trainingConfig.ScalerPath,
	})
}

// TrainModel fits the scaler and regression tree from the configured
// dataset and writes both artifacts. Returns the winning depth search
// result and the number of cleaned samples used.
func TrainModel(config TrainingConfig) (ml.DepthSearchResult, int, error) {
	if config.DatasetPath == "" {
		return ml.DepthSearchResult{}, 0, errors.New("dataset path is required")
	}
	if config.ModelPath == "" || config.ScalerPath == "" {
		return ml.DepthSearchResult{}, 0, errors.New("model and scaler paths are required")
	}
	if config.ModelType != "" && config.ModelType != "regression_tree" {
		return ml.DepthSearchResult{}, 0, errors.New("unsupported model type")
	}
	if len(config.TreeDepths) == 0 {
		config.TreeDepths = []int{3, 5, 7, 9}
	}

	rows, err := pipeline.LoadCSV(config.DatasetPath)
	if err != nil {
		return ml.DepthSearchResult{}, 0, err
	}

	cleaner := pipeline.NewDataCleaner()
	cleaned, issues := cleaner.Clean(rows)
	if len(issues) > 0 {
		zap.S().Infow("dataset rows rejected", "rejected", len(issues), "kept", len(cleaned))
	}
	if len(cleaned) == 0 {
		return ml.DepthSearchResult{}, 0, errors.New("no usable rows after cleaning")
	}

	features := make([][]float64, 0, len(cleaned))
	targets := make([]float64, 0, len(cleaned))
	for _, row := range cleaned {
		vector, err := ml.AssembleVector(row.Features)
		if err != nil {
			return ml.DepthSearchResult{}, 0, err
		}
		features = append(features, vector)
		targets = append(targets, row.Power)
	}

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(features); err != nil {
		return ml.DepthSearchResult{}, 0, err
	}
	scaled := make([][]float64, len(features))
	for i, vector := range features {
		scaled[i], err = scaler.Transform(vector)
		if err != nil {
			return ml.DepthSearchResult{}, 0, err
		}
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	trainX, trainY, testX, testY := ml.SplitDataset(scaled, targets, config.TestRatio, seed)

	best, err := ml.SearchTreeDepth(trainX, trainY, testX, testY, config.TreeDepths)
	if err != nil {
		return ml.DepthSearchResult{}, 0, err
	}

	// final model trains on the full cleaned set at the winning depth
	model := ml.NewRegressionTree(best.Depth)
	if err := model.Train(scaled, targets); err != nil {
		return ml.DepthSearchResult{}, 0, err
	}

	for _, path := range []string{config.ModelPath, config.ScalerPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return ml.DepthSearchResult{}, 0, err
		}
	}
	if err := scaler.Save(config.ScalerPath); err != nil {
		return ml.DepthSearchResult{}, 0, err
	}
	if err := model.Save(config.ModelPath); err != nil {
		return ml.DepthSearchResult{}, 0, err
	}

	if err := saveTrainingLog(db.TrainingLog{
		ModelName:  "regression_tree",
		TreeDepth:  best.Depth,
		MAE:        best.Metrics.MAE,
		RMSE:       best.Metrics.RMSE,
		DataPoints: len(cleaned),
	}); err != nil {
		zap.S().Warnw("failed to record training log", "error", err)
	}

	return best, len(cleaned), nil
}
