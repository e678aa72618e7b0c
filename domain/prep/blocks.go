package prep

import (
	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// AverageBlocks collapses each maximal contiguous group of identical
// (label, run) pairs into a single mean feature vector, retaining one label
// and one run id per group. Order is preserved. A change in either the label
// or the run id closes the current block, so a block can never straddle a run
// boundary even when the same category opens the next run.
//
// A block of length 1 averages to itself.
func AverageBlocks(samples *bold.SampleMatrix, labels []int) (*bold.BlockSet, error) {
	if err := samples.Validate(); err != nil {
		return nil, err
	}
	if len(labels) != samples.RowCount() {
		return nil, core.NewShapeError(samples.RowCount(), len(labels))
	}

	set := &bold.BlockSet{}

	start := 0
	for i := 1; i <= samples.RowCount(); i++ {
		if i < samples.RowCount() &&
			labels[i] == labels[start] &&
			samples.Runs[i] == samples.Runs[start] {
			continue
		}
		set.Features = append(set.Features, meanRows(samples.Data[start:i]))
		set.Labels = append(set.Labels, labels[start])
		set.Runs = append(set.Runs, samples.Runs[start])
		start = i
	}

	return set, nil
}

// meanRows averages a slice of equal-length rows element-wise.
func meanRows(rows [][]float64) []float64 {
	out := make([]float64, len(rows[0]))
	for _, row := range rows {
		for j, v := range row {
			out[j] += v
		}
	}
	n := float64(len(rows))
	for j := range out {
		out[j] /= n
	}
	return out
}
