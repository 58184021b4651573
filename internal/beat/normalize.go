package beat

import "math"

// normalize enforces the Result contract no matter which backend produced the
// raw value: finite positive BPM (floored at minBPM), strictly increasing
// beat times within [0, duration], intervals recomputed from the cleaned
// times rather than trusted, confidence clamped into [0, 1], and tempo
// estimates restricted to finite BPMs with non-negative weights.
func normalize(raw Result, duration, minBPM float64) Result {
	out := raw

	if math.IsNaN(out.BPM) || math.IsInf(out.BPM, 0) || out.BPM <= 0 {
		out.BPM = minBPM
	}

	cleaned := make([]float64, 0, len(raw.BeatTimes))
	prev := math.Inf(-1)
	for _, t := range raw.BeatTimes {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 || t > duration {
			continue
		}
		if t <= prev {
			continue
		}
		cleaned = append(cleaned, t)
		prev = t
	}
	out.BeatTimes = cleaned
	out.BeatIntervals = intervals(cleaned)

	out.Confidence = clamp01(out.Confidence)
	if math.IsNaN(raw.Confidence) {
		out.Confidence = 0
	}

	ests := make([]TempoEstimate, 0, len(raw.TempoEstimates))
	for _, e := range raw.TempoEstimates {
		if math.IsNaN(e.BPM) || math.IsInf(e.BPM, 0) || e.BPM <= 0 {
			continue
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) {
			e.Weight = 0
		}
		ests = append(ests, e)
	}
	out.TempoEstimates = ests

	return out
}
