package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Rhythm extraction
	MinBPM         float64 // floor used when clamping degenerate tempo estimates
	EnergyWindowMS float64 // minimal-backend short-time energy window size
	KThreshold     float64 // minimal-backend adaptive threshold multiplier (mean + k*stddev)

	// Optional ONNX beat tracker (best tier)
	ModelDir    string // directory holding mel.onnx and tracker.onnx
	ONNXLibPath string // explicit path to the ONNX Runtime shared library

	// Capability overrides
	DisableBest   bool // skip the ONNX beat tracker even if usable
	DisableGood   bool // skip the spectral-flux tempogram backend
	DisableSpline bool // force the linear interpolation fallback

	// CLI / decoding
	SampleRate int // decode target rate in Hz
	Workers    int // parallel analyses in batch mode
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		MinBPM:         envFloat("BEAT_MIN_BPM", 20.0),
		EnergyWindowMS: envFloat("BEAT_ENERGY_WINDOW_MS", 50.0),
		KThreshold:     envFloat("BEAT_K_THRESHOLD", 1.5),

		ModelDir:    envStr("BEAT_MODEL_DIR", "models/beattracker"),
		ONNXLibPath: envStr("ONNXRUNTIME_LIB_PATH", ""),

		DisableBest:   envBool("BEAT_DISABLE_BEST", false),
		DisableGood:   envBool("BEAT_DISABLE_GOOD", false),
		DisableSpline: envBool("BEAT_DISABLE_SPLINE", false),

		SampleRate: envInt("BEAT_SAMPLE_RATE", 22050),
		Workers:    envInt("BEAT_WORKERS", runtime.NumCPU()),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
