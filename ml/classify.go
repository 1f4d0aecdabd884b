package ml

// PowerLevel is the qualitative classification of a power estimate.
type PowerLevel string

const (
	PowerLow      PowerLevel = "low"
	PowerModerate PowerLevel = "moderate"
	PowerHigh     PowerLevel = "high"
)

// Display thresholds for the three-tier classification. These are design
// constants, not learned from data.
const (
	ModerateThreshold = 2000.0
	HighThreshold     = 4000.0
)

const (
	colorLow      = "#ff6b6b"
	colorModerate = "#f4c542"
	colorHigh     = "#4cd137"
)

// Classify maps a raw power estimate onto its display level and color.
func Classify(value float64) (PowerLevel, string) {
	switch {
	case value < ModerateThreshold:
		return PowerLow, colorLow
	case value < HighThreshold:
		return PowerModerate, colorModerate
	default:
		return PowerHigh, colorHigh
	}
}
