package cv

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fmridecode/domain/core"
)

// ParamAxis is one named hyperparameter dimension with an ordered list of
// candidate values. Grids are declared as explicit axes rather than loose
// key-value maps so a search space is enumerable and printable up front.
type ParamAxis struct {
	Name   string
	Values []float64
}

// Grid is the cross product of its axes.
type Grid struct {
	Axes []ParamAxis
}

// Params is one point of the grid: a value per axis, by axis name.
type Params map[string]float64

// Combinations enumerates every grid point in axis-major order. The order is
// deterministic: later axes cycle fastest.
func (g Grid) Combinations() []Params {
	if len(g.Axes) == 0 {
		return nil
	}
	combos := []Params{{}}
	for _, axis := range g.Axes {
		next := make([]Params, 0, len(combos)*len(axis.Values))
		for _, base := range combos {
			for _, v := range axis.Values {
				p := make(Params, len(base)+1)
				for k, bv := range base {
					p[k] = bv
				}
				p[axis.Name] = v
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	if len(g.Axes) == 0 {
		return 0
	}
	n := 1
	for _, axis := range g.Axes {
		n *= len(axis.Values)
	}
	return n
}

// Validate rejects empty axes and duplicate axis names.
func (g Grid) Validate() error {
	seen := make(map[string]bool)
	for _, axis := range g.Axes {
		if axis.Name == "" {
			return core.NewValidationError("grid", "axis with empty name")
		}
		if seen[axis.Name] {
			return core.NewValidationError("grid", fmt.Sprintf("duplicate axis %q", axis.Name))
		}
		seen[axis.Name] = true
		if len(axis.Values) == 0 {
			return core.NewValidationError("grid", fmt.Sprintf("axis %q has no candidate values", axis.Name))
		}
	}
	if len(g.Axes) == 0 {
		return core.NewValidationError("grid", "no axes")
	}
	return nil
}

// ScoreFunc evaluates one parameter combination and returns its score
// (higher is better). For model selection this is typically a
// cross-validated accuracy over the training portion only.
type ScoreFunc func(p Params) (float64, error)

// Candidate is the per-combination diagnostic record of a search.
type Candidate struct {
	Params Params
	Score  float64
}

// SearchResult holds the winning combination plus all diagnostics.
type SearchResult struct {
	Best       Candidate
	Candidates []Candidate
}

// Search evaluates every grid point through the scoring callback and returns
// the best-scoring combination. Evaluations run concurrently; ties resolve to
// the earliest combination in enumeration order so results are deterministic.
func Search(grid Grid, score ScoreFunc) (*SearchResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	combos := grid.Combinations()
	candidates := make([]Candidate, len(combos))
	var mu sync.Mutex

	var g errgroup.Group
	for i, p := range combos {
		g.Go(func() error {
			s, err := score(p)
			if err != nil {
				return fmt.Errorf("grid point %v: %w", p, err)
			}
			mu.Lock()
			candidates[i] = Candidate{Params: p, Score: s}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return &SearchResult{Best: best, Candidates: candidates}, nil
}
