package ml

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"fmridecode/domain/core"
)

// VoxelScore ranks one feature column by its one-way ANOVA F statistic across
// label groups, with the corresponding p-value from the F distribution.
type VoxelScore struct {
	Voxel  int
	F      float64
	PValue float64
}

// FScores computes the one-way ANOVA F statistic for every voxel column:
// between-group variance over within-group variance of that voxel across the
// label groups. High F means the voxel's response separates the categories.
func FScores(features [][]float64, labels []int) ([]VoxelScore, error) {
	if len(features) != len(labels) {
		return nil, core.NewShapeError(len(features), len(labels))
	}
	if len(features) == 0 {
		return nil, core.ErrInsufficientData
	}

	groups := make(map[int][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	k := len(groups)
	n := len(labels)
	if k < 2 || n <= k {
		return nil, core.ErrInsufficientData
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(n - k)
	fDist := distuv.F{D1: dfBetween, D2: dfWithin}

	dim := len(features[0])
	scores := make([]VoxelScore, dim)

	for col := 0; col < dim; col++ {
		grand := 0.0
		for i := range features {
			grand += features[i][col]
		}
		grand /= float64(n)

		ssBetween := 0.0
		ssWithin := 0.0
		for _, rows := range groups {
			groupMean := 0.0
			for _, i := range rows {
				groupMean += features[i][col]
			}
			groupMean /= float64(len(rows))

			d := groupMean - grand
			ssBetween += float64(len(rows)) * d * d
			for _, i := range rows {
				e := features[i][col] - groupMean
				ssWithin += e * e
			}
		}

		f := 0.0
		p := 1.0
		if ssWithin > 0 {
			f = (ssBetween / dfBetween) / (ssWithin / dfWithin)
			p = 1 - fDist.CDF(f)
		} else if ssBetween > 0 {
			// Perfect separation with zero within-group spread.
			f = math.Inf(1)
			p = 0
		}
		scores[col] = VoxelScore{Voxel: col, F: f, PValue: p}
	}

	return scores, nil
}

// TopK returns the indices of the k highest-F voxels in ascending index
// order, so selected columns keep their relative layout.
func TopK(scores []VoxelScore, k int) ([]int, error) {
	if k < 1 || k > len(scores) {
		return nil, core.NewValidationError("k", "out of range for voxel count")
	}
	ranked := make([]VoxelScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].F > ranked[j].F
	})
	idx := make([]int, k)
	for i := 0; i < k; i++ {
		idx[i] = ranked[i].Voxel
	}
	sort.Ints(idx)
	return idx, nil
}

// TakeColumns copies the selected columns of a feature matrix.
func TakeColumns(features [][]float64, cols []int) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		sel := make([]float64, len(cols))
		for j, c := range cols {
			sel[j] = row[c]
		}
		out[i] = sel
	}
	return out
}

// SelectOnAll ranks voxels on the COMPLETE dataset, before any train/test
// split. This is the double-dipping reference implementation and it is broken
// on purpose: the held-out rows have already influenced which voxels survive,
// so any downstream cross-validated accuracy is inflated. It exists to be
// contrasted with SelectWithinTrain; do not use it for real analysis and do
// not "fix" it.
func SelectOnAll(features [][]float64, labels []int, k int) ([]int, error) {
	scores, err := FScores(features, labels)
	if err != nil {
		return nil, err
	}
	return TopK(scores, k)
}

// SelectWithinTrain ranks voxels using only the given training rows. The
// returned column indices can then be applied to train and test alike without
// the test rows ever touching the selection statistics.
//
// Passing every row as training data is SelectOnAll in disguise and is
// rejected with ErrLeakage.
func SelectWithinTrain(features [][]float64, labels []int, train []int, k int) ([]int, error) {
	if len(train) >= len(features) {
		return nil, fmt.Errorf("%w: selection saw all %d rows, no held-out set remains",
			core.ErrLeakage, len(features))
	}
	trainX := make([][]float64, len(train))
	trainY := make([]int, len(train))
	for i, j := range train {
		trainX[i] = features[j]
		trainY[i] = labels[j]
	}
	scores, err := FScores(trainX, trainY)
	if err != nil {
		return nil, err
	}
	return TopK(scores, k)
}
