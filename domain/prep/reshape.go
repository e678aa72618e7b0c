package prep

import (
	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// SelectLabeled drops every acquisition carrying the Rest sentinel and returns
// the reduced feature matrix with its parallel label and run vectors. Row order
// is acquisition order; nothing is duplicated or reordered.
func SelectLabeled(samples *bold.SampleMatrix, labels []int) (*bold.SampleMatrix, []int, error) {
	if err := samples.Validate(); err != nil {
		return nil, nil, err
	}
	if len(labels) != samples.RowCount() {
		return nil, nil, core.NewShapeError(samples.RowCount(), len(labels))
	}

	keep := 0
	for _, label := range labels {
		if label != bold.Rest {
			keep++
		}
	}
	if keep == 0 {
		return nil, nil, core.ErrInsufficientData
	}

	reduced := &bold.SampleMatrix{
		Data: make([][]float64, 0, keep),
		Runs: make([]int, 0, keep),
	}
	kept := make([]int, 0, keep)

	for i, label := range labels {
		if label == bold.Rest {
			continue
		}
		row := make([]float64, len(samples.Data[i]))
		copy(row, samples.Data[i])
		reduced.Data = append(reduced.Data, row)
		reduced.Runs = append(reduced.Runs, samples.Runs[i])
		kept = append(kept, label)
	}

	return reduced, kept, nil
}
