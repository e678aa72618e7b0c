// Package testkit builds synthetic block-design datasets with a known ground
// truth, used by tests and the CLI demo commands. The canonical fixture is
// the 3 runs x 5 blocks x 3 categories x 10 trials layout with onsets every
// 1.5 seconds.
package testkit

import (
	"math/rand"

	"fmridecode/domain/bold"
)

// SessionSpec describes the synthetic experiment to generate.
type SessionSpec struct {
	NumRuns        int
	BlocksPerCat   int     // blocks per category per run
	Categories     int     // category codes are 1..Categories
	TrialsPerBlock int
	RestGap        int     // washout rest acquisitions after each block
	TRSeconds      float64 // one trial per acquisition
	Voxels         int
	SignalScale    float64 // category signature amplitude
	NoiseScale     float64 // additive gaussian noise
}

// CanonicalSpec is the end-to-end fixture layout: 45 blocks total.
func CanonicalSpec() SessionSpec {
	return SessionSpec{
		NumRuns:        3,
		BlocksPerCat:   5,
		Categories:     3,
		TrialsPerBlock: 10,
		RestGap:        8,
		TRSeconds:      1.5,
		Voxels:         30,
		SignalScale:    3.0,
		NoiseScale:     1.0,
	}
}

// TotalBlocks returns the expected prepared block count.
func (s SessionSpec) TotalBlocks() int {
	return s.NumRuns * s.BlocksPerCat * s.Categories
}

// VolumesPerRun returns the acquisition count of one run under this layout.
func (s SessionSpec) VolumesPerRun() int {
	blocks := s.BlocksPerCat * s.Categories
	return blocks * (s.RestGap + s.TrialsPerBlock)
}

// Grid returns the acquisition grid of the generated session.
func (s SessionSpec) Grid() bold.AcquisitionGrid {
	return bold.AcquisitionGrid{
		TRSeconds:     s.TRSeconds,
		NumRuns:       s.NumRuns,
		VolumesPerRun: s.VolumesPerRun(),
	}
}

// Session is a generated dataset plus the ground truth used to build it.
type Session struct {
	Spec    SessionSpec
	Samples *bold.SampleMatrix
	Table   *bold.StimulusTable

	// TrueLabels is the per-acquisition category vector before any
	// hemodynamic shift, Rest where no stimulus was on screen.
	TrueLabels []int
}

// GenerateSession synthesizes a session. Blocks cycle through the categories
// in order within each run; every trial occupies exactly one acquisition.
// Each category imprints a fixed voxel signature onto its acquisitions, so a
// linear classifier can recover the labels while permuted labels cannot.
func GenerateSession(spec SessionSpec, rng *rand.Rand) *Session {
	grid := spec.Grid()
	total := grid.TotalVolumes()

	table := &bold.StimulusTable{}
	trueLabels := make([]int, total)
	for i := range trueLabels {
		trueLabels[i] = bold.Rest
	}

	for run := 0; run < spec.NumRuns; run++ {
		vol := 0
		for b := 0; b < spec.BlocksPerCat*spec.Categories; b++ {
			category := b%spec.Categories + 1
			for t := 0; t < spec.TrialsPerBlock; t++ {
				table.Trials = append(table.Trials, bold.Trial{
					Category: category,
					Onset:    float64(vol) * spec.TRSeconds,
					Run:      run,
				})
				trueLabels[run*grid.VolumesPerRun+vol] = category
				vol++
			}
			vol += spec.RestGap
		}
	}

	signatures := categorySignatures(spec, rng)

	samples := &bold.SampleMatrix{
		Data: make([][]float64, total),
		Runs: grid.RunIDs(),
	}
	for i := 0; i < total; i++ {
		row := make([]float64, spec.Voxels)
		// Per-run baseline offset mimics scanner drift between sessions.
		baseline := float64(samples.Runs[i]) * 10
		for v := 0; v < spec.Voxels; v++ {
			row[v] = baseline + rng.NormFloat64()*spec.NoiseScale
		}
		if cat := trueLabels[i]; cat != bold.Rest {
			for v := 0; v < spec.Voxels; v++ {
				row[v] += signatures[cat][v] * spec.SignalScale
			}
		}
		samples.Data[i] = row
	}

	return &Session{Spec: spec, Samples: samples, Table: table, TrueLabels: trueLabels}
}

// categorySignatures draws one fixed random voxel pattern per category.
func categorySignatures(spec SessionSpec, rng *rand.Rand) map[int][]float64 {
	signatures := make(map[int][]float64, spec.Categories)
	for c := 1; c <= spec.Categories; c++ {
		pattern := make([]float64, spec.Voxels)
		for v := range pattern {
			pattern[v] = rng.NormFloat64()
		}
		signatures[c] = pattern
	}
	return signatures
}
