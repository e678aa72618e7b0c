package prep

import (
	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// ShiftForward moves every label n acquisitions later in time, so that the
// label applied at stimulus onset lines up with the delayed hemodynamic
// response it actually evoked. The n positions vacated at the start of the
// vector receive the Rest sentinel; the final n labels fall off the end.
//
// A shift of 0 is the identity transform.
func ShiftForward(labels []int, n int) ([]int, error) {
	if n < 0 {
		return nil, core.ErrNegativeShift
	}
	if n > len(labels) {
		return nil, core.NewLagError(n, len(labels))
	}

	out := make([]int, len(labels))
	for i := 0; i < n; i++ {
		out[i] = bold.Rest
	}
	copy(out[n:], labels[:len(labels)-n])
	return out, nil
}

// LagToVolumes converts a hemodynamic lag in seconds to a whole number of
// acquisitions, rounding down to the enclosing interval like the onset mapper.
func LagToVolumes(lagSeconds, trSeconds float64) (int, error) {
	if trSeconds <= 0 {
		return 0, core.ErrInvalidGrid
	}
	if lagSeconds < 0 {
		return 0, core.ErrNegativeShift
	}
	return int(lagSeconds / trSeconds), nil
}
