// Package beat extracts tempo and beat positions from decoded audio. Three
// backends of descending quality share one contract; the extractor walks them
// in order and returns the first result that survives normalization.
package beat

// Tier names, in descending quality order.
const (
	TierBest    = "best"
	TierGood    = "good"
	TierMinimal = "minimal"
)

// TempoEstimate is one candidate tempo with its relative strength.
// Weights are non-negative; callers use the list to disambiguate octave
// errors downstream.
type TempoEstimate struct {
	BPM    float64 `json:"bpm"`
	Weight float64 `json:"weight"`
}

// Result is the rhythm analysis of one clip. After normalization: BPM is
// finite and positive, BeatTimes is strictly increasing in seconds within the
// clip, Confidence is in [0, 1], and BeatIntervals holds the forward
// differences of BeatTimes (always len(BeatTimes)-1 entries, or none).
type Result struct {
	BPM            float64         `json:"bpm"`
	BeatTimes      []float64       `json:"beat_times"`
	Confidence     float64         `json:"confidence"`
	TempoEstimates []TempoEstimate `json:"tempo_estimates"`
	BeatIntervals  []float64       `json:"beat_intervals"`
}
