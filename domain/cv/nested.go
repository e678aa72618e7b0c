package cv

import (
	"fmt"

	"fmridecode/domain/core"
	"fmridecode/ports"
)

// TrainerFactory constructs a trainer for one hyperparameter combination.
type TrainerFactory func(p Params) (ports.Trainer, error)

// OuterFold records one outer fold of a nested search: which parameters the
// inner search picked on the training portion, and the accuracy those
// parameters reached on the untouched outer test set.
type OuterFold struct {
	Fold       int
	BestParams Params
	InnerScore float64 // inner cross-validated score that selected BestParams
	TestScore  float64 // held-out outer accuracy
	TestSize   int
}

// NestedResult is the complete nested cross-validation report. The mean outer
// test score is the unbiased generalization estimate; the inner scores are
// optimistically biased by selection and reported only for contrast.
type NestedResult struct {
	Outer []OuterFold
}

// MeanTestScore returns the mean outer held-out accuracy.
func (r *NestedResult) MeanTestScore() float64 {
	if len(r.Outer) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range r.Outer {
		sum += f.TestScore
	}
	return sum / float64(len(r.Outer))
}

// MeanInnerScore returns the mean winning inner score, for comparison with
// MeanTestScore when demonstrating selection bias.
func (r *NestedResult) MeanInnerScore() float64 {
	if len(r.Outer) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range r.Outer {
		sum += f.InnerScore
	}
	return sum / float64(len(r.Outer))
}

// NestedSearch runs grid search inside every outer training set and evaluates
// the winner on the outer test set. Hyperparameter selection therefore never
// sees the data it is scored on: the correct counterpart to running one grid
// search over the full dataset and reporting its best inner score.
//
// The inner splitter is rebuilt per outer fold from the training rows' run
// ids, keeping the leave-one-run-out structure intact inside the fold.
func NestedSearch(grid Grid, factory TrainerFactory, features [][]float64, labels, runs []int, outer ports.SplitGenerator) (*NestedResult, error) {
	if len(features) != len(labels) {
		return nil, core.NewShapeError(len(features), len(labels))
	}
	if len(runs) != len(labels) {
		return nil, core.ErrRunMismatch
	}

	outerSplits, err := outer.Splits()
	if err != nil {
		return nil, err
	}

	result := &NestedResult{Outer: make([]OuterFold, 0, len(outerSplits))}

	for k, split := range outerSplits {
		trainX, trainY := Take(features, labels, split.Train)
		trainRuns := TakeInts(runs, split.Train)
		testX, testY := Take(features, labels, split.Test)

		inner := NewLeaveOneRunOut(trainRuns)
		search, err := Search(grid, func(p Params) (float64, error) {
			trainer, err := factory(p)
			if err != nil {
				return 0, err
			}
			res, err := CrossValScore(trainer, trainX, trainY, inner)
			if err != nil {
				return 0, err
			}
			return res.Mean(), nil
		})
		if err != nil {
			return nil, fmt.Errorf("outer fold %d inner search: %w", k, err)
		}

		trainer, err := factory(search.Best.Params)
		if err != nil {
			return nil, err
		}
		predictor, err := trainer.Fit(trainX, trainY)
		if err != nil {
			return nil, fmt.Errorf("outer fold %d refit: %w", k, err)
		}
		acc, err := predictor.Score(testX, testY)
		if err != nil {
			return nil, err
		}

		result.Outer = append(result.Outer, OuterFold{
			Fold:       k,
			BestParams: search.Best.Params,
			InnerScore: search.Best.Score,
			TestScore:  acc,
			TestSize:   len(split.Test),
		})
	}

	return result, nil
}
