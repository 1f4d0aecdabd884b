package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"solarcast/db"
	qhttp "solarcast/http"
)

func main() {
	dataPath := flag.String("data", "./data/solarpowergeneration.csv", "training dataset CSV")
	modelType := flag.String("model_type", "regression_tree", "model type")
	modelPath := flag.String("model_path", "./artifacts/best_model.json", "model output path")
	scalerPath := flag.String("scaler_path", "./artifacts/scaler.json", "scaler output path")
	depths := flag.String("depths", "3,5,7,9", "comma-separated candidate tree depths")
	testRatio := flag.Float64("test_ratio", 0.2, "held-out test ratio")
	seed := flag.Int64("seed", 0, "split seed, 0 for time-based")
	dbPath := flag.String("db", "", "optional SQLite path to record the training log")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		defer db.Close()
	}

	treeDepths, err := parseDepths(*depths)
	if err != nil {
		log.Fatalf("invalid depths: %v", err)
	}

	result, samples, err := qhttp.TrainModel(qhttp.TrainingConfig{
		DatasetPath: *dataPath,
		ModelType:   *modelType,
		ModelPath:   *modelPath,
		ScalerPath:  *scalerPath,
		TreeDepths:  treeDepths,
		TestRatio:   *testRatio,
		Seed:        *seed,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("trained on %d samples, depth=%d mae=%.2f rmse=%.2f", samples, result.Depth, result.Metrics.MAE, result.Metrics.RMSE)
	fmt.Printf("model saved to %s, scaler saved to %s\n", *modelPath, *scalerPath)
}

func parseDepths(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	depths := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		depth, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if depth <= 0 {
			return nil, fmt.Errorf("depth must be positive, got %d", depth)
		}
		depths = append(depths, depth)
	}
	return depths, nil
}
