package beat

import (
	"math"
	"testing"
)

// --- foldBPM ---

func TestFoldBPM(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{120, 120},
		{60, 60},
		{200, 200},
		{240, 120},
		{480, 120},
		{30, 60},
		{15, 60},
		{55, 110},
		{0, 0},
		{-10, 0},
	}
	for _, tt := range tests {
		if got := foldBPM(tt.in); got != tt.want {
			t.Errorf("foldBPM(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := foldBPM(math.NaN()); got != 0 {
		t.Errorf("foldBPM(NaN) = %v, want 0", got)
	}
	if got := foldBPM(math.Inf(1)); got != 0 {
		t.Errorf("foldBPM(+Inf) = %v, want 0", got)
	}
}

// --- median ---

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 3},
		{"odd", []float64{5, 1, 3}, 3},
		{"unsorted input preserved", []float64{9, 2, 7, 4, 1}, 4},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("%s: median(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input mutated: %v", in)
	}
}

// --- findPeaks ---

func TestFindPeaks(t *testing.T) {
	env := []float64{0, 1, 0, 0, 2, 0, 0, 0.4, 0}

	got := findPeaks(env, 0.5, 1)
	want := []int{1, 4}
	if len(got) != len(want) {
		t.Fatalf("peaks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("peaks[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFindPeaksMinSeparationKeepsHigher(t *testing.T) {
	env := []float64{0, 1, 0, 3, 0, 0, 0, 0, 0}

	got := findPeaks(env, 0.5, 4)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("peaks = %v, want [3]", got)
	}
}

func TestFindPeaksIgnoresEndpoints(t *testing.T) {
	env := []float64{5, 0, 0, 0, 5}
	if got := findPeaks(env, 0.5, 1); len(got) != 0 {
		t.Errorf("peaks = %v, want none", got)
	}
}

// --- intervals ---

func TestIntervals(t *testing.T) {
	got := intervals([]float64{0.5, 1.0, 1.6})
	want := []float64{0.5, 0.6}
	if len(got) != len(want) {
		t.Fatalf("intervals = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("intervals[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if intervals([]float64{1}) != nil {
		t.Error("single time should yield nil intervals")
	}
}

// --- estimatesFromIntervals ---

func TestEstimatesFromIntervals(t *testing.T) {
	// Six intervals at 0.5s (120 BPM), two at 1.0s (60 BPM).
	ivals := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 1.0, 1.0}
	ests := estimatesFromIntervals(ivals)
	if len(ests) != 2 {
		t.Fatalf("estimates = %+v, want 2 entries", ests)
	}
	if ests[0].BPM != 120 || ests[0].Weight != 1 {
		t.Errorf("estimates[0] = %+v, want {120 1}", ests[0])
	}
	if ests[1].BPM != 60 || math.Abs(ests[1].Weight-2.0/6.0) > 1e-12 {
		t.Errorf("estimates[1] = %+v, want {60 0.333}", ests[1])
	}
}

func TestEstimatesFromIntervalsSkipsBadValues(t *testing.T) {
	if ests := estimatesFromIntervals([]float64{0, -1, math.NaN()}); ests != nil {
		t.Errorf("estimates = %+v, want nil", ests)
	}
}

func TestEstimatesFromIntervalsCapsAtFive(t *testing.T) {
	ivals := []float64{0.30, 0.35, 0.40, 0.45, 0.50, 0.55, 0.60}
	ests := estimatesFromIntervals(ivals)
	if len(ests) > 5 {
		t.Errorf("got %d estimates, want at most 5", len(ests))
	}
}
