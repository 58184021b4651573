package beat

import "github.com/pulsekit/pulsekit/internal/capability"

// Backend is one rhythm extraction strategy. Implementations return either a
// usable Result (possibly degenerate on silence or very short input) or an
// error; errors are tier-local and handled by the extractor, never by callers.
type Backend interface {
	Name() string
	Extract(samples []float32, sampleRate int) (*Result, error)
}

// descriptor pairs a backend with the capability that gates it. The extractor
// walks descriptors in declaration order, so order here is quality order.
type descriptor struct {
	tier      string
	available func(capability.Set) bool
	backend   Backend
}
