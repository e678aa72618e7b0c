package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds n rows per class on well-separated one-hot centroids.
func separable(perClass, classes, dim int, rng *rand.Rand) ([][]float64, []int) {
	var features [][]float64
	var labels []int
	for c := 1; c <= classes; c++ {
		for i := 0; i < perClass; i++ {
			row := make([]float64, dim)
			for j := range row {
				row[j] = rng.NormFloat64() * 0.3
			}
			row[c-1] += 5
			features = append(features, row)
			labels = append(labels, c)
		}
	}
	return features, labels
}

func TestLinearSVM_LearnsSeparableData(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	features, labels := separable(20, 3, 6, rng)

	predictor, err := NewLinearSVM(1.0, 42).Fit(features, labels)
	require.NoError(t, err)

	acc, err := predictor.Score(features, labels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95, "training accuracy on separable data")
}

func TestLinearSVM_GeneralizesToHeldOutRows(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	trainX, trainY := separable(20, 3, 6, rng)
	testX, testY := separable(10, 3, 6, rng)

	predictor, err := NewLinearSVM(1.0, 42).Fit(trainX, trainY)
	require.NoError(t, err)

	acc, err := predictor.Score(testX, testY)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.9, "held-out accuracy on separable data")
}

func TestLinearSVM_FitIsDeterministicPerSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	features, labels := separable(10, 3, 5, rng)
	probe, _ := separable(5, 3, 5, rand.New(rand.NewSource(38)))

	trainer := NewLinearSVM(1.0, 7)
	a, err := trainer.Fit(features, labels)
	require.NoError(t, err)
	b, err := trainer.Fit(features, labels)
	require.NoError(t, err)

	assert.Equal(t, a.Predict(probe), b.Predict(probe),
		"two fits of the same value trainer must agree")
}

func TestLinearSVM_PredictReturnsOriginalClassCodes(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	features, labels := separable(15, 3, 4, rng)

	predictor, err := NewLinearSVM(1.0, 1).Fit(features, labels)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, p := range predictor.Predict(features) {
		seen[p] = true
		assert.Contains(t, []int{1, 2, 3}, p)
	}
	assert.Len(t, seen, 3, "all three classes predicted somewhere")
}

func TestLinearSVM_RejectsBadInputs(t *testing.T) {
	features := [][]float64{{1, 0}, {0, 1}}

	_, err := NewLinearSVM(1.0, 1).Fit(features, []int{1})
	assert.Error(t, err, "length mismatch")

	_, err = NewLinearSVM(1.0, 1).Fit(features, []int{1, 1})
	assert.Error(t, err, "single class")

	_, err = NewLinearSVM(0, 1).Fit(features, []int{1, 2})
	assert.Error(t, err, "non-positive C")

	_, err = NewLinearSVM(1.0, 1).Fit(nil, nil)
	assert.Error(t, err, "empty data")
}
