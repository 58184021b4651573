package beat

import (
	"fmt"
	"log"

	"github.com/pulsekit/pulsekit/internal/capability"
	"github.com/pulsekit/pulsekit/internal/config"
	"github.com/pulsekit/pulsekit/internal/interp"
)

// Outcome is one successful extraction: the normalized result and the tier
// that produced it, for caller-side logging.
type Outcome struct {
	Tier   string `json:"tier"`
	Result Result `json:"result"`
}

// Extractor walks the backend tiers in descending quality order and returns
// the first result that a tier produces. The capability set is resolved once
// at construction; a tier that stops working mid-run fails that call and the
// chain moves on, it is not demoted for future calls.
//
// An Extractor has no per-call state and is safe for concurrent use.
type Extractor struct {
	cfg      config.Config
	caps     capability.Set
	backends []descriptor
}

// New builds an extractor for the given configuration and capability set.
func New(cfg config.Config, caps capability.Set) *Extractor {
	itp := interp.New(caps)
	return &Extractor{
		cfg: cfg,
		backends: []descriptor{
			{
				tier:      TierBest,
				available: func(s capability.Set) bool { return s.RhythmBest },
				backend:   newBestBackend(cfg),
			},
			{
				tier:      TierGood,
				available: func(s capability.Set) bool { return s.RhythmGood },
				backend:   newGoodBackend(cfg, itp),
			},
			{
				tier:      TierMinimal,
				available: func(capability.Set) bool { return true },
				backend:   newMinimalBackend(cfg),
			},
		},
		caps: caps,
	}
}

// Extract analyzes one clip. It fails fast on malformed input (wrapping
// ErrInvalidInput), and otherwise returns either the first tier's normalized
// result or an *ExtractionError carrying every tier's failure in order.
func (e *Extractor) Extract(samples []float32, sampleRate int) (*Outcome, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample buffer", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidInput, sampleRate)
	}
	duration := float64(len(samples)) / float64(sampleRate)

	var failures []TierFailure
	for _, d := range e.backends {
		if !d.available(e.caps) {
			continue
		}
		raw, err := d.backend.Extract(samples, sampleRate)
		if err != nil {
			log.Printf("beat: %s backend failed, trying next tier: %v", d.tier, err)
			failures = append(failures, TierFailure{Tier: d.tier, Err: err})
			continue
		}
		res := normalize(*raw, duration, e.cfg.MinBPM)
		return &Outcome{Tier: d.tier, Result: res}, nil
	}
	return nil, &ExtractionError{Failures: failures}
}
