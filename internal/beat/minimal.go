package beat

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pulsekit/pulsekit/internal/config"
)

// minimalBackend is the floor of the fallback chain: basic arithmetic only,
// no optional capability, and it must produce a valid result for any
// non-degenerate input. Beats are local maxima of a short-time energy
// envelope above an adaptive threshold; tempo is the median spacing between
// them. It never claims high certainty.
type minimalBackend struct {
	windowMS float64
	k        float64
	minBPM   float64
}

func newMinimalBackend(cfg config.Config) *minimalBackend {
	return &minimalBackend{
		windowMS: cfg.EnergyWindowMS,
		k:        cfg.KThreshold,
		minBPM:   cfg.MinBPM,
	}
}

func (b *minimalBackend) Name() string { return TierMinimal }

func (b *minimalBackend) Extract(samples []float32, sampleRate int) (*Result, error) {
	win := int(float64(sampleRate) * b.windowMS / 1000.0)
	if win < 1 {
		win = 1
	}
	winDur := float64(win) / float64(sampleRate)

	env := energyEnvelope(samples, win)
	if len(env) < 3 {
		return b.degenerate(), nil
	}

	mean := stat.Mean(env, nil)
	sd := stat.StdDev(env, nil)
	threshold := mean + b.k*sd

	// Refuse to space beats closer than the folding ceiling allows.
	minSep := int((60.0 / tempoFoldHigh) / winDur)
	peaks := findPeaks(env, threshold, minSep)
	if len(peaks) < 2 {
		return b.degenerate(), nil
	}

	beatTimes := make([]float64, len(peaks))
	for i, p := range peaks {
		beatTimes[i] = (float64(p) + 0.5) * winDur
	}

	ivals := intervals(beatTimes)
	med := median(ivals)
	if med <= 0 {
		return b.degenerate(), nil
	}
	bpm := foldBPM(60.0 / med)

	return &Result{
		BPM:            bpm,
		BeatTimes:      beatTimes,
		Confidence:     0.3 + 0.2*regularity(ivals, med),
		TempoEstimates: estimatesFromIntervals(ivals),
		BeatIntervals:  ivals,
	}, nil
}

// degenerate is the silence/too-short answer: no beats, floor tempo, and the
// bottom of this backend's confidence band.
func (b *minimalBackend) degenerate() *Result {
	return &Result{
		BPM:        b.minBPM,
		Confidence: 0.3,
	}
}

// energyEnvelope computes RMS energy over fixed non-overlapping windows.
func energyEnvelope(samples []float32, win int) []float64 {
	n := len(samples) / win
	env := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := i * win; j < (i+1)*win; j++ {
			v := float64(samples[j])
			sum += v * v
		}
		env[i] = math.Sqrt(sum / float64(win))
	}
	return env
}

// regularity is the fraction of intervals within 10% of the median; it scales
// the confidence band so an even pulse scores 0.5 and a ragged one 0.3.
func regularity(ivals []float64, med float64) float64 {
	if len(ivals) == 0 || med <= 0 {
		return 0
	}
	within := 0
	for _, iv := range ivals {
		if math.Abs(iv-med) <= 0.1*med {
			within++
		}
	}
	return float64(within) / float64(len(ivals))
}
