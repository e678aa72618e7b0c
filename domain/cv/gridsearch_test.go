package cv

import (
	"errors"
	"testing"
)

func TestGridCombinations_LaterAxesCycleFastest(t *testing.T) {
	grid := Grid{Axes: []ParamAxis{
		{Name: "C", Values: []float64{1, 2}},
		{Name: "gamma", Values: []float64{10, 20}},
	}}

	combos := grid.Combinations()
	want := []Params{
		{"C": 1, "gamma": 10},
		{"C": 1, "gamma": 20},
		{"C": 2, "gamma": 10},
		{"C": 2, "gamma": 20},
	}

	if len(combos) != len(want) {
		t.Fatalf("expected %d combinations, got %d", len(want), len(combos))
	}
	if grid.Size() != len(want) {
		t.Errorf("Size() = %d, want %d", grid.Size(), len(want))
	}
	for i := range want {
		for k, v := range want[i] {
			if combos[i][k] != v {
				t.Errorf("combination %d = %v, want %v", i, combos[i], want[i])
			}
		}
	}
}

func TestGridValidate_RejectsMalformedGrids(t *testing.T) {
	cases := []struct {
		name string
		grid Grid
	}{
		{"no axes", Grid{}},
		{"empty axis name", Grid{Axes: []ParamAxis{{Name: "", Values: []float64{1}}}}},
		{"duplicate axis", Grid{Axes: []ParamAxis{
			{Name: "C", Values: []float64{1}},
			{Name: "C", Values: []float64{2}},
		}}},
		{"axis without values", Grid{Axes: []ParamAxis{{Name: "C"}}}},
	}
	for _, c := range cases {
		if err := c.grid.Validate(); err == nil {
			t.Errorf("%s: Validate accepted", c.name)
		}
	}
}

func TestSearch_PicksHighestScore(t *testing.T) {
	grid := Grid{Axes: []ParamAxis{{Name: "C", Values: []float64{0.1, 1, 10}}}}

	result, err := Search(grid, func(p Params) (float64, error) {
		// Peak at C=1.
		if p["C"] == 1 {
			return 0.9, nil
		}
		return 0.5, nil
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Best.Params["C"] != 1 || result.Best.Score != 0.9 {
		t.Errorf("best = %v (%g)", result.Best.Params, result.Best.Score)
	}
	if len(result.Candidates) != 3 {
		t.Errorf("expected 3 candidates, got %d", len(result.Candidates))
	}
}

func TestSearch_TiesResolveToEarliestCombination(t *testing.T) {
	grid := Grid{Axes: []ParamAxis{{Name: "C", Values: []float64{0.1, 1, 10}}}}

	result, err := Search(grid, func(p Params) (float64, error) {
		return 0.7, nil // everything ties
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Best.Params["C"] != 0.1 {
		t.Errorf("tie resolved to C=%g, want first value 0.1", result.Best.Params["C"])
	}
}

func TestSearch_PropagatesScoreErrors(t *testing.T) {
	grid := Grid{Axes: []ParamAxis{{Name: "C", Values: []float64{1, 2}}}}
	boom := errors.New("scoring failed")

	_, err := Search(grid, func(p Params) (float64, error) {
		if p["C"] == 2 {
			return 0, boom
		}
		return 0.5, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped scoring error, got %v", err)
	}
}
