package ml

// Scaler applies the fitted feature transform used during model training.
type Scaler interface {
	Transform(vector []float64) ([]float64, error)
}

// Regressor produces a power estimate from a scaled feature vector.
type Regressor interface {
	Predict(vector []float64) (float64, error)
}

// TrainableModel is a regressor that can be fitted and persisted.
type TrainableModel interface {
	Regressor
	Train(features [][]float64, targets []float64) error
	Save(path string) error
	Load(path string) error
}
