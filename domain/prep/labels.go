package prep

import (
	"fmt"

	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// OnsetsToTRLabels converts continuous trial onset times into a per-acquisition
// label vector. Each trial claims the acquisition whose interval encloses its
// onset: floor(onset / TR), offset into the trial's run. Unclaimed acquisitions
// carry the Rest sentinel.
//
// An onset falling exactly on a sample boundary belongs to the interval it
// starts, never the previous one. Two trials landing on the same acquisition
// is a timing-table defect and rejected.
func OnsetsToTRLabels(table *bold.StimulusTable, grid bold.AcquisitionGrid) ([]int, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(grid); err != nil {
		return nil, err
	}

	labels := make([]int, grid.TotalVolumes())
	for i := range labels {
		labels[i] = bold.Rest
	}

	for i, trial := range table.Trials {
		within := int(trial.Onset / grid.TRSeconds)
		if within >= grid.VolumesPerRun {
			return nil, fmt.Errorf("%w: trial %d maps to volume %d of %d",
				core.ErrOnsetOutOfRun, i, within, grid.VolumesPerRun)
		}
		idx := trial.Run*grid.VolumesPerRun + within
		if labels[idx] != bold.Rest {
			return nil, core.NewValidationError("stimulus_table",
				fmt.Sprintf("trials %d and earlier both map to acquisition %d", i, idx))
		}
		labels[idx] = trial.Category
	}

	return labels, nil
}

// FillTrialSpan extends each trial label across subsequent acquisitions until
// the next labeled acquisition or a run boundary, up to span volumes. Block
// designs present one stimulus per acquisition, so span is usually 1 and this
// is a no-op; event designs with sparse onsets use larger spans.
func FillTrialSpan(labels []int, grid bold.AcquisitionGrid, span int) ([]int, error) {
	if span < 1 {
		return nil, core.NewValidationError("span", "must be >= 1")
	}
	if len(labels) != grid.TotalVolumes() {
		return nil, core.NewShapeError(grid.TotalVolumes(), len(labels))
	}

	out := make([]int, len(labels))
	copy(out, labels)

	for i, label := range labels {
		if label == bold.Rest {
			continue
		}
		runEnd := (i/grid.VolumesPerRun + 1) * grid.VolumesPerRun
		for j := i + 1; j < i+span && j < runEnd; j++ {
			if labels[j] != bold.Rest {
				break
			}
			out[j] = label
		}
	}
	return out, nil
}
