package prep

import (
	"fmridecode/domain/bold"

	"github.com/montanaflynn/stats"
)

// ZScoreByRun standardizes each voxel column to zero mean and unit variance
// independently within every scanning run, using statistics computed from that
// run's rows only. This controls for scanner drift and baseline shifts between
// sessions without letting one run's statistics touch another's: the "no
// double dipping" contract for the normalization stage.
//
// Columns with zero variance inside a run map to 0 rather than NaN.
func ZScoreByRun(samples *bold.SampleMatrix) (*bold.SampleMatrix, error) {
	if err := samples.Validate(); err != nil {
		return nil, err
	}

	out := &bold.SampleMatrix{
		Data: make([][]float64, samples.RowCount()),
		Runs: make([]int, samples.RowCount()),
	}
	copy(out.Runs, samples.Runs)
	for i := range out.Data {
		out.Data[i] = make([]float64, samples.VoxelCount())
	}

	for _, run := range distinctRuns(samples.Runs) {
		rows := rowsOfRun(samples.Runs, run)
		for col := 0; col < samples.VoxelCount(); col++ {
			column := make([]float64, len(rows))
			for k, r := range rows {
				column[k] = samples.Data[r][col]
			}

			mean, err := stats.Mean(column)
			if err != nil {
				return nil, err
			}
			sd, err := stats.StandardDeviationSample(column)
			if err != nil || len(rows) < 2 {
				sd = 0
			}

			for k, r := range rows {
				if sd == 0 {
					out.Data[r][col] = 0
					continue
				}
				out.Data[r][col] = (column[k] - mean) / sd
			}
		}
	}

	return out, nil
}

// distinctRuns returns run ids in first-appearance order.
func distinctRuns(runs []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range runs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// rowsOfRun returns the row indices belonging to one run, in order.
func rowsOfRun(runs []int, run int) []int {
	var rows []int
	for i, r := range runs {
		if r == run {
			rows = append(rows, i)
		}
	}
	return rows
}
