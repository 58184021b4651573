package beat

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Tempo folding range. Candidates outside it are halved or doubled into it,
// matching how listeners report tempo for very slow or very fast material.
const (
	tempoFoldLow  = 60.0
	tempoFoldHigh = 200.0
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// median returns the middle value of vals. Returns 0 for an empty slice.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// foldBPM halves or doubles bpm until it lands in the folding range.
func foldBPM(bpm float64) float64 {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return 0
	}
	for bpm > tempoFoldHigh {
		bpm /= 2
	}
	for bpm < tempoFoldLow {
		bpm *= 2
	}
	return bpm
}

// findPeaks returns indices of local maxima in env that exceed threshold,
// at least minSep apart. When two peaks collide within minSep the higher
// one wins.
func findPeaks(env []float64, threshold float64, minSep int) []int {
	if minSep < 1 {
		minSep = 1
	}
	var peaks []int
	for i := 1; i < len(env)-1; i++ {
		if env[i] < threshold {
			continue
		}
		if env[i] <= env[i-1] || env[i] < env[i+1] {
			continue
		}
		if n := len(peaks); n > 0 && i-peaks[n-1] < minSep {
			if env[i] > env[peaks[n-1]] {
				peaks[n-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// intervals returns the forward differences of a time sequence.
func intervals(times []float64) []float64 {
	if len(times) < 2 {
		return nil
	}
	out := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		out[i-1] = times[i] - times[i-1]
	}
	return out
}

// estimatesFromIntervals builds candidate tempi from inter-beat intervals:
// each interval votes for its folded BPM in 1-BPM buckets, and the top
// buckets become estimates with weights normalized to the strongest.
func estimatesFromIntervals(ivals []float64) []TempoEstimate {
	votes := make(map[int]float64)
	for _, iv := range ivals {
		if iv <= 0 {
			continue
		}
		bpm := foldBPM(60.0 / iv)
		if bpm == 0 {
			continue
		}
		votes[int(math.Round(bpm))]++
	}
	if len(votes) == 0 {
		return nil
	}

	ests := make([]TempoEstimate, 0, len(votes))
	for bpm, n := range votes {
		ests = append(ests, TempoEstimate{BPM: float64(bpm), Weight: n})
	}
	sort.Slice(ests, func(i, j int) bool {
		if ests[i].Weight != ests[j].Weight {
			return ests[i].Weight > ests[j].Weight
		}
		return ests[i].BPM < ests[j].BPM
	})
	if len(ests) > 5 {
		ests = ests[:5]
	}
	top := ests[0].Weight
	for i := range ests {
		ests[i].Weight /= top
	}
	return ests
}
