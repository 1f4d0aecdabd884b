package ml

import (
	"errors"
)

// LoadModel loads a trained model artifact of the given type from disk.
func LoadModel(modelType, path string) (TrainableModel, error) {
	switch modelType {
	case "regression_tree":
		model := &RegressionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}
