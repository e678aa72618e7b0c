package cv

import (
	"fmt"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"fmridecode/domain/core"
	"fmridecode/ports"
)

// PermutationResult summarizes a label-permutation sanity check. With labels
// shuffled, no classifier should beat chance; an observed accuracy far into
// the null distribution's tail means the decoding signal is real, while a
// null distribution centered above chance means the protocol leaks.
type PermutationResult struct {
	ObservedAccuracy float64
	NullAccuracies   []float64
	EmpiricalP       float64 // proportion of null >= observed
	NullMean         float64
	NullStdDev       float64
	ChanceLevel      float64 // 1 / number of classes
	NumPermutations  int
}

// PermutationTest cross-validates the trainer on the true labels, then
// repeats the full cross-validation on n independently shuffled label
// vectors. Shuffling happens before any fitting, so each permutation round
// exercises the identical protocol with destroyed label structure.
//
// Each permutation draws its generator from the RNG port by index, so rounds
// run concurrently yet reproduce exactly for a given base seed.
func PermutationTest(trainer ports.Trainer, features [][]float64, labels []int, gen ports.SplitGenerator, rng ports.RNGPort, n int, baseSeed int64) (*PermutationResult, error) {
	if len(features) != len(labels) {
		return nil, core.NewShapeError(len(features), len(labels))
	}
	if n < 1 {
		return nil, core.NewValidationError("permutations", "must be >= 1")
	}

	observed, err := CrossValScore(trainer, features, labels, gen)
	if err != nil {
		return nil, fmt.Errorf("observed score: %w", err)
	}

	null := make([]float64, n)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(4)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			stream := rng.Stream("permutation-test", i, baseSeed)

			shuffled := make([]int, len(labels))
			copy(shuffled, labels)
			for j := len(shuffled) - 1; j > 0; j-- {
				k := stream.Intn(j + 1)
				shuffled[j], shuffled[k] = shuffled[k], shuffled[j]
			}

			res, err := CrossValScore(trainer, features, shuffled, gen)
			if err != nil {
				return fmt.Errorf("permutation %d: %w", i, err)
			}
			mu.Lock()
			null[i] = res.Mean()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	extreme := 0
	for _, acc := range null {
		if acc >= observed.Mean() {
			extreme++
		}
	}

	nullMean, _ := stats.Mean(null)
	nullSD, _ := stats.StandardDeviationSample(null)

	return &PermutationResult{
		ObservedAccuracy: observed.Mean(),
		NullAccuracies:   null,
		EmpiricalP:       float64(extreme+1) / float64(n+1),
		NullMean:         nullMean,
		NullStdDev:       nullSD,
		ChanceLevel:      1.0 / float64(countClasses(labels)),
		NumPermutations:  n,
	}, nil
}

// countClasses returns the number of distinct labels.
func countClasses(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	if len(seen) == 0 {
		return 1
	}
	return len(seen)
}
