package cv

import (
	"math"
	"math/rand"
	"testing"
)

func TestPermutationTest_ShuffledLabelsFallToChance(t *testing.T) {
	// Real labels decode perfectly; shuffled labels should hover around the
	// 1/3 chance level for a 3-class problem and never approach the observed
	// accuracy, so the empirical p sits at the grid minimum.
	rng := rand.New(rand.NewSource(31))
	features, labels, runs := separableSet(3, 15, 3, 6, rng)

	n := 40
	result, err := PermutationTest(centroidTrainer{}, features, labels,
		NewLeaveOneRunOut(runs), indexedStreams{}, n, 12345)
	if err != nil {
		t.Fatalf("PermutationTest failed: %v", err)
	}

	if result.ObservedAccuracy != 1.0 {
		t.Errorf("observed accuracy = %g on separable data", result.ObservedAccuracy)
	}
	if result.ChanceLevel != 1.0/3.0 {
		t.Errorf("chance level = %g, want 1/3", result.ChanceLevel)
	}
	if result.NumPermutations != n || len(result.NullAccuracies) != n {
		t.Errorf("permutation count mismatch: %d / %d", result.NumPermutations, len(result.NullAccuracies))
	}

	// Null mean within a generous band around chance. 40 permutations over 45
	// test predictions each keeps the standard error far below this tolerance.
	if math.Abs(result.NullMean-result.ChanceLevel) > 0.15 {
		t.Errorf("null mean = %g, too far from chance %g", result.NullMean, result.ChanceLevel)
	}

	// No permutation should reach the perfect observed score.
	wantP := 1.0 / float64(n+1)
	if result.EmpiricalP != wantP {
		t.Errorf("empirical p = %g, want %g", result.EmpiricalP, wantP)
	}
}

func TestPermutationTest_DeterministicForSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	features, labels, runs := separableSet(2, 9, 3, 4, rng)

	a, err := PermutationTest(centroidTrainer{}, features, labels,
		NewLeaveOneRunOut(runs), indexedStreams{}, 10, 7)
	if err != nil {
		t.Fatalf("PermutationTest failed: %v", err)
	}
	b, err := PermutationTest(centroidTrainer{}, features, labels,
		NewLeaveOneRunOut(runs), indexedStreams{}, 10, 7)
	if err != nil {
		t.Fatalf("PermutationTest failed: %v", err)
	}

	for i := range a.NullAccuracies {
		if a.NullAccuracies[i] != b.NullAccuracies[i] {
			t.Fatalf("permutation %d differs between identical seeds", i)
		}
	}
}

func TestPermutationTest_RejectsZeroPermutations(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{1, 2, 1, 2}
	runs := []int{0, 0, 1, 1}

	_, err := PermutationTest(centroidTrainer{}, features, labels,
		NewLeaveOneRunOut(runs), indexedStreams{}, 0, 1)
	if err == nil {
		t.Error("n=0 accepted")
	}
}
