package beat

import (
	"math"
	"testing"
)

func newTestMinimal() *minimalBackend {
	return newMinimalBackend(testConfig())
}

func TestMinimalClickTrackTempo(t *testing.T) {
	b := newTestMinimal()
	samples := clickTrack(120, 10, 0.25, 22050)

	res, err := b.Extract(samples, 22050)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.BPM < 118 || res.BPM > 122 {
		t.Errorf("BPM = %v, want near 120", res.BPM)
	}
	if len(res.BeatTimes) < 15 {
		t.Errorf("found %d beats in a 10s 120 BPM clip, want most of ~20", len(res.BeatTimes))
	}
	for i := 1; i < len(res.BeatTimes); i++ {
		if res.BeatTimes[i] <= res.BeatTimes[i-1] {
			t.Fatalf("beat times not strictly increasing at %d: %v", i, res.BeatTimes)
		}
	}
	if len(res.TempoEstimates) == 0 {
		t.Error("expected tempo estimates for a regular pulse")
	}
}

func TestMinimalConfidenceBand(t *testing.T) {
	b := newTestMinimal()
	samples := clickTrack(120, 10, 0.25, 22050)

	res, err := b.Extract(samples, 22050)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// An even pulse should land at the top of the band, never above it.
	if res.Confidence < 0.3 || res.Confidence > 0.5 {
		t.Errorf("Confidence = %v, want within [0.3, 0.5]", res.Confidence)
	}
	if math.Abs(res.Confidence-0.5) > 0.05 {
		t.Errorf("Confidence = %v, want near 0.5 for a perfectly regular pulse", res.Confidence)
	}
}

func TestMinimalSilenceIsDegenerate(t *testing.T) {
	b := newTestMinimal()
	samples := make([]float32, 5*22050)

	res, err := b.Extract(samples, 22050)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.BPM != b.minBPM {
		t.Errorf("BPM = %v, want floor %v", res.BPM, b.minBPM)
	}
	if len(res.BeatTimes) != 0 {
		t.Errorf("BeatTimes = %v, want none on silence", res.BeatTimes)
	}
	if res.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", res.Confidence)
	}
}

func TestMinimalTooShortIsDegenerate(t *testing.T) {
	b := newTestMinimal()
	// Two energy windows worth of audio is below the three-window minimum.
	samples := clickTrack(120, 0.1, 0, 22050)

	res, err := b.Extract(samples, 22050)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.BPM != b.minBPM || len(res.BeatTimes) != 0 {
		t.Errorf("res = %+v, want degenerate floor result", res)
	}
}

func TestEnergyEnvelope(t *testing.T) {
	samples := []float32{1, 1, 1, 1, 0, 0, 0, 0, 0.5, 0.5}
	env := energyEnvelope(samples, 4)
	if len(env) != 2 {
		t.Fatalf("len(env) = %d, want 2 (trailing partial window dropped)", len(env))
	}
	if math.Abs(env[0]-1) > 1e-9 {
		t.Errorf("env[0] = %v, want 1", env[0])
	}
	if env[1] != 0 {
		t.Errorf("env[1] = %v, want 0", env[1])
	}
}

func TestRegularity(t *testing.T) {
	if got := regularity([]float64{0.5, 0.5, 0.5, 0.5}, 0.5); got != 1 {
		t.Errorf("even pulse regularity = %v, want 1", got)
	}
	if got := regularity([]float64{0.5, 0.9}, 0.5); got != 0.5 {
		t.Errorf("half-ragged regularity = %v, want 0.5", got)
	}
	if got := regularity(nil, 0.5); got != 0 {
		t.Errorf("empty regularity = %v, want 0", got)
	}
}
