package ports

import (
	"fmridecode/domain/bold"
)

// StimulusReader loads a stimulus timing table from a data source
// (CSV file, spreadsheet workbook, ...).
type StimulusReader interface {
	ReadTable() (*bold.StimulusTable, error)
}

// VolumeReader loads volumetric imaging data as an acquisition-by-voxel
// sample matrix, optionally restricted to the voxels of a named mask.
type VolumeReader interface {
	// ReadSamples returns the feature matrix for the given grid. When
	// maskName is non-empty the reader restricts columns to the mask's
	// nonzero voxels.
	ReadSamples(grid bold.AcquisitionGrid, maskName string) (*bold.SampleMatrix, error)
}
