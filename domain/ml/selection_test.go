package ml

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmridecode/domain/core"
)

// informativeSet builds rows where only the first `informative` voxels carry
// the class signal; the rest are pure noise.
func informativeSet(perClass, classes, dim, informative int, rng *rand.Rand) ([][]float64, []int) {
	var features [][]float64
	var labels []int
	for c := 1; c <= classes; c++ {
		for i := 0; i < perClass; i++ {
			row := make([]float64, dim)
			for j := range row {
				row[j] = rng.NormFloat64()
			}
			for j := 0; j < informative; j++ {
				row[j] += float64(c) * 4
			}
			features = append(features, row)
			labels = append(labels, c)
		}
	}
	return features, labels
}

func TestFScores_RanksInformativeVoxelsHighest(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	features, labels := informativeSet(20, 3, 10, 3, rng)

	scores, err := FScores(features, labels)
	require.NoError(t, err)
	require.Len(t, scores, 10)

	// Every informative voxel must outscore every noise voxel.
	minInformative := math.Inf(1)
	maxNoise := 0.0
	for _, s := range scores {
		if s.Voxel < 3 {
			minInformative = math.Min(minInformative, s.F)
		} else {
			maxNoise = math.Max(maxNoise, s.F)
		}
	}
	assert.Greater(t, minInformative, maxNoise)

	for _, s := range scores {
		if s.Voxel < 3 {
			assert.Less(t, s.PValue, 0.001, "informative voxel %d", s.Voxel)
		}
	}
}

func TestFScores_PerfectSeparationYieldsInfiniteF(t *testing.T) {
	features := [][]float64{{1}, {1}, {2}, {2}}
	labels := []int{1, 1, 2, 2}

	scores, err := FScores(features, labels)
	require.NoError(t, err)
	assert.True(t, math.IsInf(scores[0].F, 1))
	assert.Zero(t, scores[0].PValue)
}

func TestFScores_ConstantVoxelScoresZero(t *testing.T) {
	features := [][]float64{{5}, {5}, {5}, {5}}
	labels := []int{1, 1, 2, 2}

	scores, err := FScores(features, labels)
	require.NoError(t, err)
	assert.Zero(t, scores[0].F)
	assert.Equal(t, 1.0, scores[0].PValue)
}

func TestTopK_ReturnsAscendingIndices(t *testing.T) {
	scores := []VoxelScore{
		{Voxel: 0, F: 1},
		{Voxel: 1, F: 9},
		{Voxel: 2, F: 5},
		{Voxel: 3, F: 7},
	}

	idx, err := TopK(scores, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, idx)

	_, err = TopK(scores, 0)
	assert.Error(t, err)
	_, err = TopK(scores, 5)
	assert.Error(t, err)
}

func TestTakeColumns_SelectsAndCopies(t *testing.T) {
	features := [][]float64{{1, 2, 3}, {4, 5, 6}}

	out := TakeColumns(features, []int{2, 0})
	assert.Equal(t, [][]float64{{3, 1}, {6, 4}}, out)

	out[0][0] = 99
	assert.Equal(t, 3.0, features[0][2], "selection must not alias the source")
}

func TestSelectWithinTrain_IgnoresHeldOutRows(t *testing.T) {
	// Voxel 0 separates the classes only within the training rows; voxel 1
	// separates them only within the held-out rows. Selection restricted to
	// the training rows must pick voxel 0.
	features := [][]float64{
		{10, 0}, {10, 0}, {20, 0}, {20, 0}, // train: voxel 0 informative
		{0, 10}, {0, 20}, {0, 10}, {0, 20}, // held out: voxel 1 informative
	}
	labels := []int{1, 1, 2, 2, 1, 2, 1, 2}

	idx, err := SelectWithinTrain(features, labels, []int{0, 1, 2, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, idx)

	// The leaky variant sees everything and is pulled toward voxel 1 too.
	all, err := SelectOnAll(features, labels, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, all)
}

func TestSelectWithinTrain_RejectsFullRowSet(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{1, 1, 2, 2}

	_, err := SelectWithinTrain(features, labels, []int{0, 1, 2, 3}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLeakage)
}
