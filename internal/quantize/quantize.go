// Package quantize snaps note events onto a sub-beat grid derived from
// extracted beat times. It consumes the rhythm engine's output and feeds the
// transcription side; it owns no file formats.
package quantize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pulsekit/pulsekit/internal/interp"
)

// ErrInvalidGrid reports too few beats or steps to build a usable grid.
var ErrInvalidGrid = errors.New("quantize: invalid grid")

// Note is a plain note event in seconds. Pitch and velocity ride along
// untouched; only the times are quantized.
type Note struct {
	Start    float64
	End      float64
	Pitch    int
	Velocity int
}

// Grid resamples beat times onto a grid of stepsPerBeat subdivisions by
// interpolating beat time over beat index. With extend, the grid continues
// one beat past the last detected beat, extrapolated linearly from the
// trailing interval (the interpolation adapter clamps at the boundary by
// contract, so the extension is done explicitly here).
func Grid(beatTimes []float64, stepsPerBeat int, extend bool, itp interp.Func) ([]float64, error) {
	n := len(beatTimes)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 beats, got %d", ErrInvalidGrid, n)
	}
	if stepsPerBeat < 1 {
		return nil, fmt.Errorf("%w: stepsPerBeat = %d", ErrInvalidGrid, stepsPerBeat)
	}

	idx := make([]float64, n)
	for i := range idx {
		idx[i] = float64(i)
	}

	var xNew []float64
	if extend {
		xNew = linspace(0, float64(n), n*stepsPerBeat+1)
	} else {
		xNew = linspace(0, float64(n-1), n*stepsPerBeat-1)
	}

	grid, err := itp(idx, beatTimes, xNew)
	if err != nil {
		return nil, err
	}

	if extend {
		lastIdx := float64(n - 1)
		tail := beatTimes[n-1] - beatTimes[n-2]
		for i, x := range xNew {
			if x > lastIdx {
				grid[i] = beatTimes[n-1] + (x-lastIdx)*tail
			}
		}
	}
	return grid, nil
}

// Snap quantizes each note's onset and offset to the nearest grid boundary
// (nearest by bin midpoint). A note whose onset and offset collapse onto the
// same step keeps a one-step minimum length, and duplicates sharing an onset
// step and pitch are dropped.
func Snap(notes []Note, grid []float64) ([]Note, error) {
	if len(grid) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 grid steps, got %d", ErrInvalidGrid, len(grid))
	}

	mid := make([]float64, len(grid)-1)
	for i := range mid {
		mid[i] = (grid[i] + grid[i+1]) / 2
	}

	type snapped struct {
		on, off int
		note    Note
	}
	quantized := make([]snapped, 0, len(notes))
	last := len(grid) - 1
	for _, n := range notes {
		on := digitize(mid, n.Start)
		off := digitize(mid, n.End)
		if off == on {
			off++
		}
		if off > last {
			off = last
		}
		if on >= off {
			on = off - 1
		}
		quantized = append(quantized, snapped{on: on, off: off, note: n})
	}

	// Drop duplicates sharing (onset step, pitch); the first occurrence wins.
	sort.SliceStable(quantized, func(i, j int) bool {
		if quantized[i].on != quantized[j].on {
			return quantized[i].on < quantized[j].on
		}
		return quantized[i].note.Pitch < quantized[j].note.Pitch
	})
	deduped := quantized[:0]
	for _, q := range quantized {
		if n := len(deduped); n > 0 && q.on == deduped[n-1].on && q.note.Pitch == deduped[n-1].note.Pitch {
			continue
		}
		deduped = append(deduped, q)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].on != deduped[j].on {
			return deduped[i].on < deduped[j].on
		}
		return deduped[i].off < deduped[j].off
	})

	out := make([]Note, len(deduped))
	for i, q := range deduped {
		out[i] = Note{
			Start:    grid[q.on],
			End:      grid[q.off],
			Pitch:    q.note.Pitch,
			Velocity: q.note.Velocity,
		}
	}
	return out, nil
}

// digitize returns the number of bin edges <= v, i.e. the grid step whose
// midpoint neighborhood contains v.
func digitize(bins []float64, v float64) int {
	return sort.Search(len(bins), func(i int) bool { return bins[i] > v })
}

func linspace(a, b float64, count int) []float64 {
	out := make([]float64, count)
	if count == 1 {
		out[0] = a
		return out
	}
	step := (b - a) / float64(count-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	return out
}
