package prep

import (
	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// PrepareConfig carries the dataset constants the pipeline needs beyond the
// acquisition grid itself.
type PrepareConfig struct {
	Grid       bold.AcquisitionGrid
	LagSeconds float64 // hemodynamic response delay
	TrialSpan  int     // acquisitions each trial label covers (>= 1)
}

// PrepareResult is the full output of the data-preparation pipeline for one
// subject: the classification-ready block set plus any diagnostic warnings.
type PrepareResult struct {
	Blocks *bold.BlockSet

	// Warnings collects non-fatal conditions, currently runs that ended up
	// with zero labeled acquisitions (upstream timing misalignment).
	Warnings []error
}

// Prepare chains the five pipeline stages: onset mapping, hemodynamic shift,
// labeled-row selection, per-run z-scoring and blockwise averaging. All inputs
// are treated as immutable; every stage returns fresh slices.
func Prepare(samples *bold.SampleMatrix, table *bold.StimulusTable, cfg PrepareConfig) (*PrepareResult, error) {
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	if samples.RowCount() != cfg.Grid.TotalVolumes() {
		return nil, core.NewShapeError(cfg.Grid.TotalVolumes(), samples.RowCount())
	}

	span := cfg.TrialSpan
	if span == 0 {
		span = 1
	}

	labels, err := OnsetsToTRLabels(table, cfg.Grid)
	if err != nil {
		return nil, err
	}
	labels, err = FillTrialSpan(labels, cfg.Grid, span)
	if err != nil {
		return nil, err
	}

	shift, err := LagToVolumes(cfg.LagSeconds, cfg.Grid.TRSeconds)
	if err != nil {
		return nil, err
	}
	shifted, err := ShiftForward(labels, shift)
	if err != nil {
		return nil, err
	}

	warnings := emptyRunWarnings(shifted, cfg.Grid)

	reduced, kept, err := SelectLabeled(samples, shifted)
	if err != nil {
		return nil, err
	}

	normalized, err := ZScoreByRun(reduced)
	if err != nil {
		return nil, err
	}

	blocks, err := AverageBlocks(normalized, kept)
	if err != nil {
		return nil, err
	}
	if err := blocks.Validate(); err != nil {
		return nil, err
	}

	return &PrepareResult{Blocks: blocks, Warnings: warnings}, nil
}

// emptyRunWarnings flags runs whose shifted label vector carries nothing but
// the Rest sentinel. Such runs silently vanish in SelectLabeled, so they are
// surfaced here instead.
func emptyRunWarnings(labels []int, grid bold.AcquisitionGrid) []error {
	var warnings []error
	for r := 0; r < grid.NumRuns; r++ {
		start := r * grid.VolumesPerRun
		labeled := false
		for _, label := range labels[start : start+grid.VolumesPerRun] {
			if label != bold.Rest {
				labeled = true
				break
			}
		}
		if !labeled {
			warnings = append(warnings, core.NewEmptyRunWarning(r))
		}
	}
	return warnings
}
