// Package capability detects which optional analysis backends are usable in
// the current process. Detection runs once; the resulting Set is immutable
// and safe to share across goroutines.
package capability

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/pulsekit/pulsekit/internal/config"
)

// Set records which optional backends are available. It is a plain value:
// copies are independent and nothing mutates a Set after Detect returns.
type Set struct {
	RhythmBest     bool // ONNX neural beat tracker is usable
	RhythmGood     bool // spectral-flux tempogram backend is enabled
	InterpAdvanced bool // spline interpolation is enabled
}

var (
	probeOnce sync.Once
	probed    Set
)

// Probe returns the process-wide capability set, computing it on first use.
// Repeated calls return the cached result without re-attempting detection.
func Probe() Set {
	probeOnce.Do(func() {
		probed = Detect(config.Load())
	})
	return probed
}

// Detect computes a capability set for the given configuration. Unlike
// Probe it is not cached; tests and embedders can call it freely.
// Acquisition failures are recorded as unavailable, never returned as errors.
func Detect(cfg config.Config) Set {
	s := Set{
		RhythmGood:     !cfg.DisableGood,
		InterpAdvanced: !cfg.DisableSpline,
	}

	switch {
	case cfg.DisableBest:
		log.Printf("capability: rhythm_best disabled via BEAT_DISABLE_BEST")
	default:
		if err := onnxUsable(cfg); err != nil {
			log.Printf("capability: rhythm_best unavailable: %v", err)
		} else {
			s.RhythmBest = true
		}
	}
	if cfg.DisableGood {
		log.Printf("capability: rhythm_good disabled via BEAT_DISABLE_GOOD")
	}
	if cfg.DisableSpline {
		log.Printf("capability: interp_advanced disabled via BEAT_DISABLE_SPLINE")
	}

	return s
}

var (
	ortOnce sync.Once
	ortErr  error
)

// onnxUsable reports whether the ONNX Runtime shared library can be loaded
// and the beat tracker models are on disk. The runtime environment is
// initialized at most once per process regardless of how often detection runs.
func onnxUsable(cfg config.Config) error {
	for _, name := range []string{"mel.onnx", "tracker.onnx"} {
		path := filepath.Join(cfg.ModelDir, name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("model %s not found in %s", name, cfg.ModelDir)
		}
	}

	ortOnce.Do(func() {
		ort.SetSharedLibraryPath(libraryPath(cfg))
		ortErr = ort.InitializeEnvironment()
	})
	if ortErr != nil {
		return fmt.Errorf("initialize ONNX Runtime: %w", ortErr)
	}
	return nil
}

// libraryPath returns the path to the ONNX Runtime shared library, preferring
// an explicit configuration over platform defaults.
func libraryPath(cfg config.Config) string {
	if cfg.ONNXLibPath != "" {
		return cfg.ONNXLibPath
	}

	candidates := []string{
		"/opt/homebrew/lib/libonnxruntime.dylib", // macOS ARM (Homebrew)
		"/usr/local/lib/libonnxruntime.dylib",    // macOS Intel (Homebrew)
		"/usr/lib/libonnxruntime.so",             // Linux
		"/usr/local/lib/libonnxruntime.so",       // Linux (manual install)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Let the loader search for it.
	return "onnxruntime"
}
