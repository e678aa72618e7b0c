// Package stim loads stimulus timing tables. The on-disk matrix has one
// column per trial and four rows: category code, an unused placeholder,
// onset time in seconds, and run index. Both CSV exports and spreadsheet
// workbooks of that matrix are supported.
package stim

import (
	"fmt"
	"strconv"
	"strings"

	"fmridecode/domain/bold"
	"fmridecode/domain/core"
)

// Row indices inside the stimulus matrix.
const (
	rowCategory = 0
	rowUnused   = 1
	rowOnset    = 2
	rowRun      = 3

	matrixRows = 4
)

// tableFromMatrix converts the raw 4xN string matrix into trials. Run indices
// in the file are 1-based, as exported by the acquisition software.
func tableFromMatrix(cells [][]string) (*bold.StimulusTable, error) {
	if len(cells) < matrixRows {
		return nil, core.NewValidationError("stimulus_matrix",
			fmt.Sprintf("have %d rows, need %d", len(cells), matrixRows))
	}

	trials := len(cells[rowCategory])
	for r := 1; r < matrixRows; r++ {
		if len(cells[r]) != trials {
			return nil, core.NewValidationError("stimulus_matrix",
				fmt.Sprintf("row %d has %d trials, row 0 has %d", r, len(cells[r]), trials))
		}
	}

	table := &bold.StimulusTable{Trials: make([]bold.Trial, 0, trials)}
	for c := 0; c < trials; c++ {
		category, err := parseInt(cells[rowCategory][c])
		if err != nil {
			return nil, fmt.Errorf("trial %d category: %w", c, err)
		}
		onset, err := parseFloat(cells[rowOnset][c])
		if err != nil {
			return nil, fmt.Errorf("trial %d onset: %w", c, err)
		}
		run, err := parseInt(cells[rowRun][c])
		if err != nil {
			return nil, fmt.Errorf("trial %d run: %w", c, err)
		}
		if run < 1 {
			return nil, core.NewValidationError("stimulus_matrix",
				fmt.Sprintf("trial %d has run index %d, expected 1-based", c, run))
		}
		table.Trials = append(table.Trials, bold.Trial{
			Category: category,
			Onset:    onset,
			Run:      run - 1,
		})
	}
	return table, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
