package cv

import (
	"math"
	"math/rand"
	"testing"
)

func TestCrossValScore_SeparableDataScoresPerfectly(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	features, labels, runs := separableSet(3, 9, 3, 6, rng)

	result, err := CrossValScore(centroidTrainer{}, features, labels, NewLeaveOneRunOut(runs))
	if err != nil {
		t.Fatalf("CrossValScore failed: %v", err)
	}

	if len(result.Folds) != 3 {
		t.Fatalf("expected 3 folds, got %d", len(result.Folds))
	}
	for _, f := range result.Folds {
		if f.Accuracy != 1.0 {
			t.Errorf("fold %d accuracy = %g on separable data", f.Fold, f.Accuracy)
		}
		if f.TestSize != 9 {
			t.Errorf("fold %d test size = %d, want 9", f.Fold, f.TestSize)
		}
	}
	if result.Mean() != 1.0 {
		t.Errorf("mean accuracy = %g", result.Mean())
	}
}

func TestCrossValScore_RejectsShapeMismatch(t *testing.T) {
	features := [][]float64{{1}, {2}}
	if _, err := CrossValScore(centroidTrainer{}, features, []int{1}, NewLeaveOneRunOut([]int{0, 1})); err == nil {
		t.Error("length mismatch accepted")
	}
}

func TestCrossValResultMean_EmptyIsZero(t *testing.T) {
	r := &CrossValResult{}
	if r.Mean() != 0 {
		t.Errorf("empty mean = %g", r.Mean())
	}
}

func TestTake_CopiesRows(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	labels := []int{1, 2, 3}

	outX, outY := Take(features, labels, []int{2, 0})

	if outY[0] != 3 || outY[1] != 1 {
		t.Fatalf("labels = %v", outY)
	}
	if outX[0][0] != 5 || outX[1][0] != 1 {
		t.Fatalf("rows = %v", outX)
	}

	outX[0][0] = math.NaN()
	if features[2][0] != 5 {
		t.Error("Take aliases the source matrix")
	}
}

func TestTakeInts_SelectsInOrder(t *testing.T) {
	out := TakeInts([]int{10, 20, 30, 40}, []int{3, 1})
	if out[0] != 40 || out[1] != 20 {
		t.Errorf("TakeInts = %v", out)
	}
}
