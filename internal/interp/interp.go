// Package interp resamples beat-strength curves and onset envelopes onto new
// sample points. A spline method is used when available; otherwise a plain
// piecewise-linear fallback keeps the pipeline functional.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	ginterp "gonum.org/v1/gonum/interp"

	"github.com/pulsekit/pulsekit/internal/capability"
)

// ErrInvalidInput reports malformed interpolation arguments: mismatched
// lengths, fewer than two knots, or a non-increasing x axis.
var ErrInvalidInput = errors.New("interp: invalid input")

// Func interpolates y(x) at the points xNew, which must be finite. The
// output always has len(xNew) entries. Points outside [x[0], x[len(x)-1]]
// clamp to the nearest endpoint value; extrapolating noisy beat curves is
// never safe, so bounded output is the contract here, not an approximation
// of one.
type Func func(x, y, xNew []float64) ([]float64, error)

// New selects the best interpolation method the capability set allows.
func New(caps capability.Set) Func {
	if caps.InterpAdvanced {
		return Spline
	}
	return Linear
}

// Linear performs piecewise-linear interpolation with endpoint clamping.
func Linear(x, y, xNew []float64) ([]float64, error) {
	if err := validate(x, y); err != nil {
		return nil, err
	}
	if err := validateQueries(xNew); err != nil {
		return nil, err
	}

	out := make([]float64, len(xNew))
	last := len(x) - 1
	for i, xn := range xNew {
		switch {
		case xn <= x[0]:
			out[i] = y[0]
		case xn >= x[last]:
			out[i] = y[last]
		default:
			// Index of the right edge of the containing interval.
			j := sort.SearchFloat64s(x, xn)
			if x[j] == xn {
				out[i] = y[j]
				continue
			}
			t := (xn - x[j-1]) / (x[j] - x[j-1])
			out[i] = y[j-1] + t*(y[j]-y[j-1])
		}
	}
	return out, nil
}

// Spline interpolates with a Fritsch-Butland monotone cubic, which cannot
// overshoot between knots. Endpoint clamping matches Linear.
func Spline(x, y, xNew []float64) ([]float64, error) {
	if err := validate(x, y); err != nil {
		return nil, err
	}
	if err := validateQueries(xNew); err != nil {
		return nil, err
	}

	var fb ginterp.FritschButland
	if err := fb.Fit(x, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := make([]float64, len(xNew))
	last := len(x) - 1
	for i, xn := range xNew {
		if xn < x[0] {
			xn = x[0]
		} else if xn > x[last] {
			xn = x[last]
		}
		out[i] = fb.Predict(xn)
	}
	return out, nil
}

// validateQueries rejects non-finite query points. Clamping gives NaN and
// ±Inf no sensible answer, and a NaN query would otherwise slip past both
// clamp branches and index out of range in the search.
func validateQueries(xNew []float64) error {
	for i, xn := range xNew {
		if math.IsNaN(xn) || math.IsInf(xn, 0) {
			return fmt.Errorf("%w: xNew[%d]=%v is not finite", ErrInvalidInput, i, xn)
		}
	}
	return nil
}

func validate(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrInvalidInput, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidInput, len(x))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] || math.IsNaN(x[i-1]) || math.IsNaN(x[i]) {
			return fmt.Errorf("%w: x must be strictly increasing (x[%d]=%v, x[%d]=%v)",
				ErrInvalidInput, i-1, x[i-1], i, x[i])
		}
	}
	return nil
}
