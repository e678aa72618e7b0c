package bold

import (
	"fmt"

	"fmridecode/domain/core"
)

// Rest is the sentinel label for acquisitions with no stimulus on screen
// (fixation / inter-block rest). It never survives into a prepared BlockSet.
const Rest = -1

// Trial is one stimulus presentation from the timing table.
type Trial struct {
	Category int     // category code from a small fixed enumeration
	Onset    float64 // seconds from run start
	Run      int     // 0-based scanning run index
}

// StimulusTable holds the per-trial rows of the stimulus timing matrix.
// INVARIANT: onsets strictly increase within each run.
type StimulusTable struct {
	Trials []Trial
}

// Validate checks onset monotonicity and run membership against the grid.
func (t *StimulusTable) Validate(grid AcquisitionGrid) error {
	lastOnset := make(map[int]float64)
	runLength := grid.TRSeconds * float64(grid.VolumesPerRun)

	for i, trial := range t.Trials {
		if trial.Run < 0 || trial.Run >= grid.NumRuns {
			return fmt.Errorf("%w: trial %d assigned to run %d of %d",
				core.ErrOnsetOutOfRun, i, trial.Run, grid.NumRuns)
		}
		if trial.Onset < 0 || trial.Onset >= runLength {
			return fmt.Errorf("%w: trial %d onset %.2fs, run spans %.2fs",
				core.ErrOnsetOutOfRun, i, trial.Onset, runLength)
		}
		if prev, seen := lastOnset[trial.Run]; seen && trial.Onset <= prev {
			return fmt.Errorf("%w: trial %d onset %.2fs after %.2fs in run %d",
				core.ErrOnsetNotSorted, i, trial.Onset, prev, trial.Run)
		}
		lastOnset[trial.Run] = trial.Onset
	}
	return nil
}

// Categories returns the distinct category codes present, in first-seen order.
func (t *StimulusTable) Categories() []int {
	seen := make(map[int]bool)
	var out []int
	for _, trial := range t.Trials {
		if !seen[trial.Category] {
			seen[trial.Category] = true
			out = append(out, trial.Category)
		}
	}
	return out
}

// AcquisitionGrid fixes the temporal geometry of one subject's session.
type AcquisitionGrid struct {
	TRSeconds     float64 // repetition time: seconds per whole-brain acquisition
	NumRuns       int
	VolumesPerRun int
}

// TotalVolumes is the acquisition count across all runs.
func (g AcquisitionGrid) TotalVolumes() int {
	return g.NumRuns * g.VolumesPerRun
}

// Validate rejects degenerate grids before any indexing happens.
func (g AcquisitionGrid) Validate() error {
	if g.TRSeconds <= 0 {
		return fmt.Errorf("%w: TR %.3fs", core.ErrInvalidGrid, g.TRSeconds)
	}
	if g.NumRuns <= 0 || g.VolumesPerRun <= 0 {
		return fmt.Errorf("%w: %d runs x %d volumes", core.ErrInvalidGrid, g.NumRuns, g.VolumesPerRun)
	}
	return nil
}

// RunIDs expands the grid into a run membership vector, one entry per acquisition.
func (g AcquisitionGrid) RunIDs() []int {
	runs := make([]int, 0, g.TotalVolumes())
	for r := 0; r < g.NumRuns; r++ {
		for v := 0; v < g.VolumesPerRun; v++ {
			runs = append(runs, r)
		}
	}
	return runs
}

// SampleMatrix is an acquisition-by-voxel feature matrix with parallel run
// membership. Rows stay in scanner acquisition order throughout the pipeline.
type SampleMatrix struct {
	Data [][]float64 // rows=acquisitions, cols=voxels
	Runs []int       // run id per row
}

// Validate ensures rows, run ids and voxel counts line up.
func (m *SampleMatrix) Validate() error {
	if len(m.Data) == 0 {
		return core.ErrInsufficientData
	}
	if len(m.Runs) != len(m.Data) {
		return fmt.Errorf("%w: %d rows vs %d run ids", core.ErrRunMismatch, len(m.Data), len(m.Runs))
	}
	width := len(m.Data[0])
	for i, row := range m.Data {
		if len(row) != width {
			return core.NewValidationError("sample_matrix",
				fmt.Sprintf("row %d has %d voxels, expected %d", i, len(row), width))
		}
	}
	return nil
}

// RowCount returns the number of acquisitions.
func (m *SampleMatrix) RowCount() int { return len(m.Data) }

// VoxelCount returns the feature width (0 for an empty matrix).
func (m *SampleMatrix) VoxelCount() int {
	if len(m.Data) == 0 {
		return 0
	}
	return len(m.Data[0])
}

// BlockSet is the prepared, classification-ready artifact: one averaged
// feature vector per stimulus block with parallel labels and run ids.
// INVARIANT: a block never spans a run boundary.
type BlockSet struct {
	Features [][]float64
	Labels   []int
	Runs     []int
}

// Validate checks the three parallel slices agree.
func (b *BlockSet) Validate() error {
	if len(b.Features) != len(b.Labels) {
		return core.NewShapeError(len(b.Features), len(b.Labels))
	}
	if len(b.Runs) != len(b.Features) {
		return fmt.Errorf("%w: %d blocks vs %d run ids", core.ErrRunMismatch, len(b.Features), len(b.Runs))
	}
	return nil
}

// Len returns the block count.
func (b *BlockSet) Len() int { return len(b.Features) }
