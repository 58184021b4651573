package audio

import (
	"math"
	"testing"
)

// --- Clip ---

func TestClipDuration(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		rate    int
		want    float64
	}{
		{"one second", 22050, 22050, 1.0},
		{"half second", 11025, 22050, 0.5},
		{"empty", 0, 22050, 0},
		{"zero rate", 100, 0, 0},
	}
	for _, tt := range tests {
		c := Clip{Samples: make([]float32, tt.samples), SampleRate: tt.rate}
		if got := c.Duration(); got != tt.want {
			t.Errorf("%s: Duration() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// --- Sample conversion ---

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []float32{0, 1, -1, 0.5, -0.25, 1e-7, float32(math.Pi)}
	buf := SamplesToBytes(original)
	if len(buf) != len(original)*4 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(original)*4)
	}

	recovered := BytesToSamples(buf)
	if len(recovered) != len(original) {
		t.Fatalf("BytesToSamples length = %d, want %d", len(recovered), len(original))
	}
	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("round-trip sample[%d]: got %v, want %v", i, recovered[i], v)
		}
	}
}

func TestBytesToSamplesDropsTrailingBytes(t *testing.T) {
	buf := SamplesToBytes([]float32{0.25, -0.75})
	got := BytesToSamples(buf[:len(buf)-1]) // truncated last sample
	if len(got) != 1 {
		t.Fatalf("BytesToSamples on truncated buffer: got %d samples, want 1", len(got))
	}
	if got[0] != 0.25 {
		t.Errorf("surviving sample = %v, want 0.25", got[0])
	}
}
