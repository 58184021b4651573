package beat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput reports a caller contract violation: an empty sample buffer
// or a non-positive sample rate. It is never retried internally.
var ErrInvalidInput = errors.New("beat: invalid input")

// TierFailure records why one backend tier failed during an extraction call.
type TierFailure struct {
	Tier string
	Err  error
}

func (f TierFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Tier, f.Err)
}

// ExtractionError means every eligible backend failed, including the minimal
// tier. Failures holds one entry per attempted tier, in attempted order.
type ExtractionError struct {
	Failures []TierFailure
}

func (e *ExtractionError) Error() string {
	if len(e.Failures) == 0 {
		return "beat: no eligible backend"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("beat: all %d backends failed: %s", len(e.Failures), strings.Join(parts, "; "))
}
