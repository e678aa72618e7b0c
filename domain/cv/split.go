package cv

import (
	"fmt"
	"math/rand"
	"sort"

	"fmridecode/domain/core"
	"fmridecode/ports"
)

// LeaveOneRunOut yields one split per scanning run: the run's rows form the
// test set and every other row trains. This is the canonical fMRI scheme -
// runs are acquired minutes apart, so holding a whole run out keeps the test
// set temporally independent of training data.
type LeaveOneRunOut struct {
	Runs []int
}

// NewLeaveOneRunOut builds the splitter over a run membership vector.
func NewLeaveOneRunOut(runs []int) *LeaveOneRunOut {
	return &LeaveOneRunOut{Runs: runs}
}

// Splits implements ports.SplitGenerator.
func (s *LeaveOneRunOut) Splits() ([]ports.Split, error) {
	if len(s.Runs) == 0 {
		return nil, core.ErrInsufficientData
	}

	order := distinctSorted(s.Runs)
	if len(order) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 runs, got %d", core.ErrInsufficientData, len(order))
	}

	splits := make([]ports.Split, 0, len(order))
	for _, heldOut := range order {
		var split ports.Split
		for i, r := range s.Runs {
			if r == heldOut {
				split.Test = append(split.Test, i)
			} else {
				split.Train = append(split.Train, i)
			}
		}
		splits = append(splits, split)
	}
	return splits, nil
}

// KFold yields k shuffled, near-equal partitions. The shuffle comes from the
// caller's generator so fold assignment is reproducible per seed.
type KFold struct {
	N   int
	K   int
	Rng *rand.Rand
}

// NewKFold builds a k-fold splitter over n samples.
func NewKFold(n, k int, rng *rand.Rand) *KFold {
	return &KFold{N: n, K: k, Rng: rng}
}

// Splits implements ports.SplitGenerator.
func (s *KFold) Splits() ([]ports.Split, error) {
	if s.K < 2 {
		return nil, core.NewValidationError("k", "must be >= 2")
	}
	if s.N < s.K {
		return nil, fmt.Errorf("%w: %d samples for %d folds", core.ErrInsufficientData, s.N, s.K)
	}

	perm := make([]int, s.N)
	for i := range perm {
		perm[i] = i
	}
	if s.Rng != nil {
		s.Rng.Shuffle(len(perm), func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
	}

	splits := make([]ports.Split, s.K)
	for i, idx := range perm {
		fold := i % s.K
		splits[fold].Test = append(splits[fold].Test, idx)
	}
	for f := range splits {
		sort.Ints(splits[f].Test)
		inTest := make(map[int]bool, len(splits[f].Test))
		for _, idx := range splits[f].Test {
			inTest[idx] = true
		}
		for i := 0; i < s.N; i++ {
			if !inTest[i] {
				splits[f].Train = append(splits[f].Train, i)
			}
		}
	}
	return splits, nil
}

// distinctSorted returns the unique values of a run vector in ascending order.
func distinctSorted(runs []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range runs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}
