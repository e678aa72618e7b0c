package nifti

import (
	"fmt"
	"path/filepath"

	"fmridecode/domain/bold"
	"fmridecode/domain/core"
	"fmridecode/ports"
)

// VolumeReader loads a subject's 4-D BOLD image from a data directory and
// flattens it into an acquisition-by-voxel sample matrix. Masks are 3-D
// images in the same directory named <mask>.nii whose nonzero voxels select
// the feature columns.
type VolumeReader struct {
	DataDir  string
	BoldFile string // e.g. "bold.nii"
}

// NewVolumeReader builds a reader over one subject directory.
func NewVolumeReader(dataDir, boldFile string) *VolumeReader {
	return &VolumeReader{DataDir: dataDir, BoldFile: boldFile}
}

// ReadSamples implements ports.VolumeReader.
func (r *VolumeReader) ReadSamples(grid bold.AcquisitionGrid, maskName string) (*bold.SampleMatrix, error) {
	img, err := ReadFile(filepath.Join(r.DataDir, r.BoldFile))
	if err != nil {
		return nil, err
	}

	_, _, _, nt := img.Dims()
	if nt != grid.TotalVolumes() {
		return nil, fmt.Errorf("%w: image has %d volumes, grid expects %d",
			core.ErrShapeMismatch, nt, grid.TotalVolumes())
	}

	keep, err := r.maskColumns(img, maskName)
	if err != nil {
		return nil, err
	}

	samples := &bold.SampleMatrix{
		Data: make([][]float64, nt),
		Runs: grid.RunIDs(),
	}
	for t := 0; t < nt; t++ {
		vol, err := img.Volume(t)
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(keep))
		for j, v := range keep {
			row[j] = vol[v]
		}
		samples.Data[t] = row
	}

	if err := samples.Validate(); err != nil {
		return nil, err
	}
	return samples, nil
}

// maskColumns resolves the voxel columns to keep. With no mask every spatial
// voxel survives.
func (r *VolumeReader) maskColumns(img *Image, maskName string) ([]int, error) {
	n := img.VoxelsPerVolume()

	if maskName == "" {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	mask, err := ReadFile(filepath.Join(r.DataDir, maskName+".nii"))
	if err != nil {
		return nil, fmt.Errorf("mask %q: %w", maskName, err)
	}
	if mask.VoxelsPerVolume() != n {
		return nil, fmt.Errorf("%w: mask %q has %d voxels, image has %d",
			core.ErrShapeMismatch, maskName, mask.VoxelsPerVolume(), n)
	}

	var keep []int
	for i := 0; i < n; i++ {
		if mask.Data[i] != 0 {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, core.NewValidationError("mask", fmt.Sprintf("%q selects no voxels", maskName))
	}
	return keep, nil
}

var _ ports.VolumeReader = (*VolumeReader)(nil)
