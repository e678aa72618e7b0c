// Package nifti reads NIfTI-1 volumes into acquisition-by-voxel sample
// matrices. Only single-file .nii images (header and data together) are
// supported; the header layout follows the official nifti1.h definition,
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"fmridecode/domain/core"
)

// Header is the fixed 348-byte NIfTI-1 header.
type Header struct {
	SizeofHdr          int32      // Must be 348
	UnusedDataType     [10]int8   // Unused
	UnusedDbName       [18]int8   // Unused
	UnusedExtents      int32      // Unused
	UnusedSessionError int16      // Unused
	UnusedRegular      int8       // Unused
	DimInfo            int8       // MRI slice ordering
	Dim                [8]int16   // Data array dimensions
	IntentP1           float32    // 1st intent parameter
	IntentP2           float32    // 2nd intent parameter
	IntentP3           float32    // 3rd intent parameter
	IntentCode         int16      // NIFTI_INTENT_* code
	Datatype           int16      // Defines data type
	Bitpix             int16      // Number bits/voxel
	SliceStart         int16      // First slice index
	Pixdim             [8]float32 // Grid spacing
	VoxOffset          float32    // Offset into .nii file
	SclSlope           float32    // Data scaling: slope
	SclInter           float32    // Data scaling: offset
	SliceEnd           int16      // Last slice index
	SliceCode          int8       // Slice timing order
	XyztUnits          int8       // Units of pixdim[1..4]
	CalMax             float32    // Max display intensity
	CalMin             float32    // Min display intensity
	SliceDuration      float32    // Time for 1 slice
	Toffset            float32    // Time axis shift
	UnusedGlmax        int32      // Unused
	UnusedGlmin        int32      // Unused
	Descrip            [80]int8   // Any text you like
	AuxFile            [24]int8   // Auxiliary filename
	QformCode          int16      // NIFTI_XFORM_* code
	SformCode          int16      // NIFTI_XFORM_* code
	QuaternB           float32    // Quaternion b param
	QuaternC           float32    // Quaternion c param
	QuaternD           float32    // Quaternion d param
	QoffsetX           float32    // Quaternion x shift
	QoffsetY           float32    // Quaternion y shift
	QoffsetZ           float32    // Quaternion z shift
	SrowX              [4]float32 // 1st row affine transform
	SrowY              [4]float32 // 2nd row affine transform
	SrowZ              [4]float32 // 3rd row affine transform
	IntentName         [16]int8   // 'name' or meaning of data
	Magic              [4]int8    // Must be "ni1\0" or "n+1\0"
}

const (
	headerSize    = 352 // header + 4-byte extension flag
	minHeaderSize = 348
)

// NIfTI-1 datatype codes this reader understands.
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
)

// Image is a decoded NIfTI-1 file: header plus voxel data as float64,
// already scaled by scl_slope/scl_inter when the header requests it.
type Image struct {
	Header Header
	Data   []float64 // x fastest, then y, z, t (NIfTI column-major order)
}

// Dims returns the spatial extents and the time-point count (1 for 3-D).
func (img *Image) Dims() (x, y, z, t int) {
	x, y, z = int(img.Header.Dim[1]), int(img.Header.Dim[2]), int(img.Header.Dim[3])
	t = 1
	if img.Header.Dim[0] >= 4 {
		t = int(img.Header.Dim[4])
	}
	return
}

// VoxelsPerVolume returns the flattened spatial size of one volume.
func (img *Image) VoxelsPerVolume() int {
	x, y, z, _ := img.Dims()
	return x * y * z
}

// Volume returns volume t's voxels as a flat slice, without copying.
func (img *Image) Volume(t int) ([]float64, error) {
	n := img.VoxelsPerVolume()
	_, _, _, nt := img.Dims()
	if t < 0 || t >= nt {
		return nil, core.NewValidationError("volume", fmt.Sprintf("index %d of %d", t, nt))
	}
	return img.Data[t*n : (t+1)*n], nil
}

// ReadFile decodes a single-file NIfTI-1 image.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nifti %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a NIfTI-1 image from a seekable stream.
func Read(r io.ReadSeeker) (*Image, error) {
	h, order, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	if h.Magic != [4]int8{'n', '+', '1', 0} {
		return nil, core.NewValidationError("nifti_magic",
			"data must be stored in the same file as the header (magic n+1)")
	}

	offset := int64(h.VoxOffset)
	if offset < headerSize {
		offset = headerSize
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to voxel data: %w", err)
	}

	count := 1
	for d := int16(1); d <= h.Dim[0]; d++ {
		count *= int(h.Dim[d])
	}
	if count <= 0 {
		return nil, core.NewValidationError("nifti_dim", "non-positive voxel count")
	}

	data, err := readVoxels(r, h.Datatype, count, order)
	if err != nil {
		return nil, err
	}

	// scl_slope == 0 means no scaling per the standard.
	if h.SclSlope != 0 && (h.SclSlope != 1 || h.SclInter != 0) {
		m, b := float64(h.SclSlope), float64(h.SclInter)
		for i := range data {
			data[i] = m*data[i] + b
		}
	}

	return &Image{Header: h, Data: data}, nil
}

// readHeader decodes the fixed header, sniffing byte order via dim[0]:
// a value outside [1,7] means the file was written on the other endianness.
func readHeader(r io.ReadSeeker) (Header, binary.ByteOrder, error) {
	var h Header
	var order binary.ByteOrder = binary.LittleEndian

	if err := binary.Read(r, order, &h); err != nil {
		return h, order, fmt.Errorf("read nifti header: %w", err)
	}
	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return h, order, err
		}
		h = Header{}
		order = binary.BigEndian
		if err := binary.Read(r, order, &h); err != nil {
			return h, order, fmt.Errorf("read nifti header (big endian): %w", err)
		}
	}

	if h.SizeofHdr != minHeaderSize {
		return h, order, core.NewValidationError("nifti_header",
			fmt.Sprintf("sizeof_hdr %d, want %d", h.SizeofHdr, minHeaderSize))
	}
	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return h, order, core.NewValidationError("nifti_dim",
			fmt.Sprintf("dim[0]=%d outside [1,7] under both byte orders", h.Dim[0]))
	}
	return h, order, nil
}

// readVoxels decodes count voxels of the given datatype into float64.
func readVoxels(r io.Reader, datatype int16, count int, order binary.ByteOrder) ([]float64, error) {
	out := make([]float64, count)

	switch datatype {
	case DTUint8:
		buf := make([]uint8, count)
		if err := binary.Read(r, order, &buf); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case DTInt16:
		buf := make([]int16, count)
		if err := binary.Read(r, order, &buf); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case DTInt32:
		buf := make([]int32, count)
		if err := binary.Read(r, order, &buf); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case DTFloat32:
		buf := make([]float32, count)
		if err := binary.Read(r, order, &buf); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case DTFloat64:
		if err := binary.Read(r, order, &out); err != nil {
			return nil, fmt.Errorf("read voxels: %w", err)
		}
	default:
		return nil, core.NewValidationError("nifti_datatype",
			fmt.Sprintf("unsupported datatype code %d", datatype))
	}

	return out, nil
}
