package nifti

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// writeBold writes a 2x1x1 spatial image with nt time points whose voxel v at
// time t holds 10*t+v, making rows easy to assert on.
func writeBold(t *testing.T, dir string, nt int) {
	t.Helper()
	values := make([]float32, 2*nt)
	for tp := 0; tp < nt; tp++ {
		for v := 0; v < 2; v++ {
			values[tp*2+v] = float32(10*tp + v)
		}
	}
	writeNifti(t, filepath.Join(dir, "bold.nii"),
		[8]int16{4, 2, 1, 1, int16(nt), 1, 1, 1}, DTFloat32, 0, 0,
		binary.LittleEndian, writeFloat32s(values))
}

func TestVolumeReaderReadSamples_FlattensTimeSeries(t *testing.T) {
	dir := t.TempDir()
	grid := bold.AcquisitionGrid{TRSeconds: 2.0, NumRuns: 2, VolumesPerRun: 3}
	writeBold(t, dir, grid.TotalVolumes())

	samples, err := NewVolumeReader(dir, "bold.nii").ReadSamples(grid, "")
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}

	if samples.RowCount() != 6 || samples.VoxelCount() != 2 {
		t.Fatalf("shape = %dx%d, want 6x2", samples.RowCount(), samples.VoxelCount())
	}
	if samples.Data[4][0] != 40 || samples.Data[4][1] != 41 {
		t.Errorf("row 4 = %v, want [40 41]", samples.Data[4])
	}
	wantRuns := []int{0, 0, 0, 1, 1, 1}
	for i := range wantRuns {
		if samples.Runs[i] != wantRuns[i] {
			t.Fatalf("runs = %v", samples.Runs)
		}
	}
}

func TestVolumeReaderReadSamples_MaskSelectsColumns(t *testing.T) {
	dir := t.TempDir()
	grid := bold.AcquisitionGrid{TRSeconds: 2.0, NumRuns: 2, VolumesPerRun: 2}
	writeBold(t, dir, grid.TotalVolumes())

	// 3-D mask keeping only the second spatial voxel.
	writeNifti(t, filepath.Join(dir, "vt.nii"),
		[8]int16{3, 2, 1, 1, 1, 1, 1, 1}, DTFloat32, 0, 0,
		binary.LittleEndian, writeFloat32s([]float32{0, 1}))

	samples, err := NewVolumeReader(dir, "bold.nii").ReadSamples(grid, "vt")
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}

	if samples.VoxelCount() != 1 {
		t.Fatalf("masked voxel count = %d, want 1", samples.VoxelCount())
	}
	for tp := 0; tp < 4; tp++ {
		if samples.Data[tp][0] != float64(10*tp+1) {
			t.Errorf("row %d = %v", tp, samples.Data[tp])
		}
	}
}

func TestVolumeReaderReadSamples_EmptyMaskIsAnError(t *testing.T) {
	dir := t.TempDir()
	grid := bold.AcquisitionGrid{TRSeconds: 2.0, NumRuns: 2, VolumesPerRun: 2}
	writeBold(t, dir, grid.TotalVolumes())

	writeNifti(t, filepath.Join(dir, "empty.nii"),
		[8]int16{3, 2, 1, 1, 1, 1, 1, 1}, DTFloat32, 0, 0,
		binary.LittleEndian, writeFloat32s([]float32{0, 0}))

	if _, err := NewVolumeReader(dir, "bold.nii").ReadSamples(grid, "empty"); err == nil {
		t.Error("all-zero mask accepted")
	}
}

func TestVolumeReaderReadSamples_VolumeCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeBold(t, dir, 4)

	grid := bold.AcquisitionGrid{TRSeconds: 2.0, NumRuns: 2, VolumesPerRun: 3}
	_, err := NewVolumeReader(dir, "bold.nii").ReadSamples(grid, "")
	if !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestVolumeReaderReadSamples_MissingFile(t *testing.T) {
	dir := t.TempDir()
	grid := bold.AcquisitionGrid{TRSeconds: 2.0, NumRuns: 2, VolumesPerRun: 2}

	_, err := NewVolumeReader(dir, "absent.nii").ReadSamples(grid, "")
	if err == nil {
		t.Fatal("missing file accepted")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}
