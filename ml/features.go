package ml

import "fmt"

// FeatureCount is the number of weather measurements the model consumes.
const FeatureCount = 9

// Feature keys accepted by the prediction service. The order returned by
// FeatureNames must exactly match the column order used when the model was
// trained; reordering silently corrupts predictions.
const (
	FeatureDistanceToSolarNoon = "distance-to-solar-noon"
	FeatureTemperature         = "temperature"
	FeatureWindDirection       = "wind-direction"
	FeatureWindSpeed           = "wind-speed"
	FeatureSkyCover            = "sky-cover"
	FeatureVisibility          = "visibility"
	FeatureHumidity            = "humidity"
	FeatureAvgWindSpeed        = "average-wind-speed-(period)"
	FeatureAvgPressure         = "average-pressure-(period)"
)

// FeatureNames returns the feature keys in training order.
func FeatureNames() []string {
	return []string{
		FeatureDistanceToSolarNoon,
		FeatureTemperature,
		FeatureWindDirection,
		FeatureWindSpeed,
		FeatureSkyCover,
		FeatureVisibility,
		FeatureHumidity,
		FeatureAvgWindSpeed,
		FeatureAvgPressure,
	}
}

// MissingFeatureError reports a required feature key absent from the input.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature %q", e.Feature)
}

// AssembleVector builds the ordered numeric vector from named inputs.
func AssembleVector(inputs map[string]float64) ([]float64, error) {
	vector := make([]float64, 0, FeatureCount)
	for _, name := range FeatureNames() {
		value, ok := inputs[name]
		if !ok {
			return nil, &MissingFeatureError{Feature: name}
		}
		vector = append(vector, value)
	}
	return vector, nil
}
