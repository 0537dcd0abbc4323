package manager

import "histoscan/pkg/types"

// DecisionThreshold is the sigmoid cut-off for the positive class.
const DecisionThreshold = 0.5

// Classify maps the model's raw sigmoid output to a labelled result.
// ProcessingTimeMs is left for the caller.
func Classify(raw float64) types.PredictionResult {
	positive := raw >= DecisionThreshold
	res := types.PredictionResult{
		Status:            types.StatusNoCancer,
		Confidence:        (1 - raw) * 100,
		CancerProbability: raw * 100,
	}
	if positive {
		res.Status = types.StatusCancer
		res.Confidence = raw * 100
	}
	return res
}
