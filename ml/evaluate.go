package ml

import (
	"errors"
	"math"
	"math/rand"
)

// EvalMetrics holds regression quality measures on a held-out split.
type EvalMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// Evaluate computes MAE and RMSE of a regressor over a test set.
func Evaluate(model Regressor, features [][]float64, targets []float64) (EvalMetrics, error) {
	if len(features) == 0 {
		return EvalMetrics{}, errors.New("test set is empty")
	}
	if len(features) != len(targets) {
		return EvalMetrics{}, errors.New("features and targets size mismatch")
	}

	var absSum, sqSum float64
	for i, row := range features {
		predicted, err := model.Predict(row)
		if err != nil {
			return EvalMetrics{}, err
		}
		diff := predicted - targets[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}
	n := float64(len(features))
	return EvalMetrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
	}, nil
}

// SplitDataset shuffles samples and splits them into train/test sets.
func SplitDataset(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(features))

	split := int(math.Round(float64(len(features)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// DepthSearchResult is the outcome of a tree depth grid search.
type DepthSearchResult struct {
	Depth   int         `json:"depth"`
	Metrics EvalMetrics `json:"metrics"`
}

// SearchTreeDepth trains one regression tree per candidate depth and picks
// the depth with the lowest RMSE on the test split.
func SearchTreeDepth(trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, depths []int) (DepthSearchResult, error) {
	if len(depths) == 0 {
		return DepthSearchResult{}, errors.New("no candidate depths")
	}

	best := DepthSearchResult{Depth: -1, Metrics: EvalMetrics{RMSE: math.MaxFloat64}}
	for _, depth := range depths {
		model := NewRegressionTree(depth)
		if err := model.Train(trainX, trainY); err != nil {
			return DepthSearchResult{}, err
		}
		metrics, err := Evaluate(model, testX, testY)
		if err != nil {
			return DepthSearchResult{}, err
		}
		if metrics.RMSE < best.Metrics.RMSE {
			best = DepthSearchResult{Depth: depth, Metrics: metrics}
		}
	}
	return best, nil
}
