package stim

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fmridecode/domain/bold"
	"fmridecode/ports"
)

// ExcelReader loads the stimulus matrix from the first sheet of an .xlsx
// workbook, laid out like the CSV export: four rows, one column per trial.
type ExcelReader struct {
	Path  string
	Sheet string // empty means first sheet
}

// NewExcelReader builds a reader over one workbook.
func NewExcelReader(path string) *ExcelReader {
	return &ExcelReader{Path: path}
}

// ReadTable implements ports.StimulusReader.
func (r *ExcelReader) ReadTable() (*bold.StimulusTable, error) {
	f, err := excelize.OpenFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open stimulus workbook %s: %w", r.Path, err)
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return tableFromMatrix(cells)
}

var _ ports.StimulusReader = (*ExcelReader)(nil)
