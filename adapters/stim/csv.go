package stim

import (
	"encoding/csv"
	"fmt"
	"os"

	"fmridecode/domain/bold"
	"fmridecode/ports"
)

// CSVReader loads the stimulus matrix from a CSV file: four records
// (category, placeholder, onset, run), one field per trial.
type CSVReader struct {
	Path string
}

// NewCSVReader builds a reader over one timing file.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{Path: path}
}

// ReadTable implements ports.StimulusReader.
func (r *CSVReader) ReadTable() (*bold.StimulusTable, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open stimulus csv %s: %w", r.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated against row 0 in tableFromMatrix
	cells, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse stimulus csv %s: %w", r.Path, err)
	}

	return tableFromMatrix(cells)
}

var _ ports.StimulusReader = (*CSVReader)(nil)
