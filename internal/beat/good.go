package beat

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/pulsekit/pulsekit/internal/config"
	"github.com/pulsekit/pulsekit/internal/interp"
)

const (
	goodFrameSize = 1024
	goodHopSize   = 512
	// Frames below this leave nothing for the autocorrelation to work with.
	goodMinFrames = 32
)

// goodBackend estimates tempo from a spectral-flux onset envelope and an
// autocorrelation tempogram. Beat times come from a phase-anchored grid at
// the beat period, snapped to nearby onset maxima on an upsampled envelope.
type goodBackend struct {
	minBPM float64
	itp    interp.Func
}

func newGoodBackend(cfg config.Config, itp interp.Func) *goodBackend {
	return &goodBackend{minBPM: cfg.MinBPM, itp: itp}
}

func (b *goodBackend) Name() string { return TierGood }

func (b *goodBackend) Extract(samples []float32, sampleRate int) (*Result, error) {
	onset := onsetEnvelope(samples, sampleRate)
	if len(onset) < goodMinFrames {
		return nil, fmt.Errorf("clip too short for spectral analysis: %d frames", len(onset))
	}

	var total float64
	for _, v := range onset {
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("no spectral flux in clip (silence?)")
	}

	frameRate := float64(sampleRate) / float64(goodHopSize)
	clusters := tempogramClusters(onset, frameRate)
	if len(clusters) == 0 {
		return nil, fmt.Errorf("no tempo candidates in autocorrelation")
	}

	bpm := clusters[0].BPM

	// Peak-to-secondary-peak ratio of the folded tempogram.
	confidence := 1.0
	if len(clusters) > 1 {
		confidence = clamp01(1 - clusters[1].Weight/clusters[0].Weight)
	}

	duration := float64(len(samples)) / float64(sampleRate)
	beatTimes := b.beatGrid(onset, frameRate, bpm, duration)

	ests := make([]TempoEstimate, len(clusters))
	top := clusters[0].Weight
	for i, c := range clusters {
		ests[i] = TempoEstimate{BPM: c.BPM, Weight: c.Weight / top}
	}

	return &Result{
		BPM:            bpm,
		BeatTimes:      beatTimes,
		Confidence:     confidence,
		TempoEstimates: ests,
		BeatIntervals:  intervals(beatTimes),
	}, nil
}

// onsetEnvelope computes positive spectral flux per hop: the energy that
// appeared in each FFT bin since the previous frame.
func onsetEnvelope(samples []float32, sampleRate int) []float64 {
	n := len(samples)
	if n < goodFrameSize {
		return nil
	}
	numFrames := (n-goodFrameSize)/goodHopSize + 1

	onset := make([]float64, numFrames)
	frame := make([]float64, goodFrameSize)
	prevMag := make([]float64, goodFrameSize/2+1)
	mag := make([]float64, goodFrameSize/2+1)

	for i := 0; i < numFrames; i++ {
		start := i * goodHopSize
		for j := 0; j < goodFrameSize; j++ {
			frame[j] = float64(samples[start+j])
		}
		window.Apply(frame, window.Hann)

		spec := fft.FFTReal(frame)
		for j := 0; j <= goodFrameSize/2; j++ {
			mag[j] = cmplx.Abs(spec[j])
		}

		var flux float64
		for j := range mag {
			if d := mag[j] - prevMag[j]; d > 0 {
				flux += d
			}
		}
		onset[i] = flux
		copy(prevMag, mag)
	}
	return onset
}

type tempoCluster struct {
	BPM    float64
	Weight float64
}

// tempogramClusters autocorrelates the onset envelope over the plausible lag
// range, folds candidate lags into the tempo range, and merges candidates
// within 2 BPM so octave twins reinforce one tempo instead of competing.
func tempogramClusters(onset []float64, frameRate float64) []tempoCluster {
	minLag := int(60.0 / tempoFoldHigh * frameRate)
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(60.0 / tempoFoldLow * frameRate)
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if maxLag <= minLag {
		return nil
	}

	corr := make([]float64, maxLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		count := 0
		for i := 0; i+lag < len(onset); i++ {
			sum += onset[i] * onset[i+lag]
			count++
		}
		if count == 0 {
			continue
		}
		sum /= float64(count)

		// Mild perceptual prior toward common dance tempi; prevents the
		// half/double-time ambiguity from flipping on noisy material.
		bpm := 60.0 * frameRate / float64(lag)
		weight := math.Exp(-0.5 * math.Pow((bpm-120.0)/40.0, 2))
		corr[lag] = sum * (0.8 + 0.2*weight)
	}

	var clusters []tempoCluster
	for lag := minLag + 1; lag < maxLag; lag++ {
		if corr[lag] <= 0 || corr[lag] <= corr[lag-1] || corr[lag] < corr[lag+1] {
			continue
		}
		bpm := foldBPM(60.0 * frameRate / float64(lag))
		merged := false
		for i := range clusters {
			if math.Abs(clusters[i].BPM-bpm) <= 2.0 {
				if corr[lag] > clusters[i].Weight {
					clusters[i].Weight = corr[lag]
					clusters[i].BPM = bpm
				}
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, tempoCluster{BPM: bpm, Weight: corr[lag]})
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Weight > clusters[j].Weight })
	if len(clusters) > 5 {
		clusters = clusters[:5]
	}
	return clusters
}

// beatGrid lays a grid at the beat period anchored on the strongest early
// onset, then snaps each grid point to the nearest local maximum of the
// envelope upsampled 4x.
func (b *goodBackend) beatGrid(onset []float64, frameRate, bpm, duration float64) []float64 {
	if bpm <= 0 {
		return nil
	}
	period := 60.0 / bpm

	// Phase anchor: strongest onset in the first 5 seconds.
	searchFrames := int(5.0 * frameRate)
	if searchFrames > len(onset) {
		searchFrames = len(onset)
	}
	anchorIdx := 0
	for i := 1; i < searchFrames; i++ {
		if onset[i] > onset[anchorIdx] {
			anchorIdx = i
		}
	}
	anchor := float64(anchorIdx) / frameRate

	var grid []float64
	for t := anchor; t >= 0; t -= period {
		grid = append(grid, t)
	}
	// Reverse into ascending order before extending forward.
	for i, j := 0, len(grid)-1; i < j; i, j = i+1, j-1 {
		grid[i], grid[j] = grid[j], grid[i]
	}
	for t := anchor + period; t < duration; t += period {
		grid = append(grid, t)
	}

	fineT, fineV, ok := b.upsampleEnvelope(onset, frameRate)
	if !ok {
		return grid
	}

	fineStep := fineT[1] - fineT[0]
	halfWin := period / 5
	beats := make([]float64, 0, len(grid))
	prev := math.Inf(-1)
	for _, t := range grid {
		snapped := snapToMax(fineT, fineV, t, halfWin, fineStep)
		if snapped <= prev {
			snapped = t
		}
		if snapped <= prev {
			continue
		}
		beats = append(beats, snapped)
		prev = snapped
	}
	return beats
}

// upsampleEnvelope resamples the onset envelope to 4x frame resolution via
// the configured interpolation method.
func (b *goodBackend) upsampleEnvelope(onset []float64, frameRate float64) ([]float64, []float64, bool) {
	if len(onset) < 2 {
		return nil, nil, false
	}
	tEnv := make([]float64, len(onset))
	for i := range tEnv {
		tEnv[i] = float64(i) / frameRate
	}

	fineCount := (len(onset)-1)*4 + 1
	fineT := make([]float64, fineCount)
	step := 1.0 / (4 * frameRate)
	for i := range fineT {
		fineT[i] = float64(i) * step
	}

	fineV, err := b.itp(tEnv, onset, fineT)
	if err != nil {
		return nil, nil, false
	}
	return fineT, fineV, true
}

// snapToMax returns the time of the largest envelope value within halfWin of
// t, or t itself when the window is empty.
func snapToMax(fineT, fineV []float64, t, halfWin, step float64) float64 {
	lo := int((t - halfWin) / step)
	hi := int((t + halfWin) / step)
	if lo < 0 {
		lo = 0
	}
	if hi >= len(fineV) {
		hi = len(fineV) - 1
	}
	if lo > hi {
		return t
	}
	best := lo
	for i := lo + 1; i <= hi; i++ {
		if fineV[i] > fineV[best] {
			best = i
		}
	}
	return fineT[best]
}
