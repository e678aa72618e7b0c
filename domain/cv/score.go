package cv

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fmridecode/domain/core"
	"fmridecode/ports"
)

// FoldScore is the held-out accuracy of one cross-validation fold.
type FoldScore struct {
	Fold     int
	Accuracy float64
	TestSize int
}

// CrossValResult aggregates per-fold accuracies.
type CrossValResult struct {
	Folds []FoldScore
}

// Mean returns the unweighted mean fold accuracy.
func (r *CrossValResult) Mean() float64 {
	if len(r.Folds) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range r.Folds {
		sum += f.Accuracy
	}
	return sum / float64(len(r.Folds))
}

// CrossValScore fits a fresh predictor per fold and scores it on the held-out
// rows. Folds run concurrently; each Fit sees only its own copy of the
// training rows, so the trainer contract (no shared mutable state) holds.
func CrossValScore(trainer ports.Trainer, features [][]float64, labels []int, gen ports.SplitGenerator) (*CrossValResult, error) {
	if len(features) != len(labels) {
		return nil, core.NewShapeError(len(features), len(labels))
	}

	splits, err := gen.Splits()
	if err != nil {
		return nil, err
	}

	result := &CrossValResult{Folds: make([]FoldScore, len(splits))}
	var mu sync.Mutex

	var g errgroup.Group
	for k, split := range splits {
		g.Go(func() error {
			trainX, trainY := Take(features, labels, split.Train)
			testX, testY := Take(features, labels, split.Test)

			predictor, err := trainer.Fit(trainX, trainY)
			if err != nil {
				return fmt.Errorf("fold %d fit: %w", k, err)
			}
			acc, err := predictor.Score(testX, testY)
			if err != nil {
				return fmt.Errorf("fold %d score: %w", k, err)
			}

			mu.Lock()
			result.Folds[k] = FoldScore{Fold: k, Accuracy: acc, TestSize: len(split.Test)}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Take copies the selected rows of a feature matrix and label vector.
func Take(features [][]float64, labels []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, j := range idx {
		row := make([]float64, len(features[j]))
		copy(row, features[j])
		outX[i] = row
		outY[i] = labels[j]
	}
	return outX, outY
}

// TakeInts copies selected entries of an int vector (run ids, labels).
func TakeInts(values []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
