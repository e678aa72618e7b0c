package cv

import (
	"math"
	"math/rand"

	"fmridecode/ports"
)

// centroidTrainer is a deterministic nearest-centroid classifier used to
// exercise the cross-validation machinery without the SVM's training loop.
type centroidTrainer struct{}

func (centroidTrainer) Fit(features [][]float64, labels []int) (ports.Predictor, error) {
	sums := make(map[int][]float64)
	counts := make(map[int]int)
	for i, row := range features {
		if sums[labels[i]] == nil {
			sums[labels[i]] = make([]float64, len(row))
		}
		for j, v := range row {
			sums[labels[i]][j] += v
		}
		counts[labels[i]]++
	}
	centroids := make(map[int][]float64, len(sums))
	for label, sum := range sums {
		c := make([]float64, len(sum))
		for j, v := range sum {
			c[j] = v / float64(counts[label])
		}
		centroids[label] = c
	}
	return centroidPredictor{centroids: centroids}, nil
}

type centroidPredictor struct {
	centroids map[int][]float64
}

func (p centroidPredictor) Predict(features [][]float64) []int {
	out := make([]int, len(features))
	for i, row := range features {
		best, bestDist := 0, math.Inf(1)
		for label, c := range p.centroids {
			d := 0.0
			for j := range row {
				diff := row[j] - c[j]
				d += diff * diff
			}
			if d < bestDist || (d == bestDist && label < best) {
				best, bestDist = label, d
			}
		}
		out[i] = best
	}
	return out
}

func (p centroidPredictor) Score(features [][]float64, labels []int) (float64, error) {
	pred := p.Predict(features)
	correct := 0
	for i := range labels {
		if pred[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// separableSet builds a labeled dataset whose classes sit on well-separated
// centroids, cycling labels 1..classes across runs of equal size.
func separableSet(runs, perRun, classes, voxels int, rng *rand.Rand) (features [][]float64, labels, runIDs []int) {
	for r := 0; r < runs; r++ {
		for i := 0; i < perRun; i++ {
			label := i%classes + 1
			row := make([]float64, voxels)
			for j := range row {
				row[j] = rng.NormFloat64()
			}
			// Strong one-hot style class offset.
			row[(label-1)%voxels] += 8
			features = append(features, row)
			labels = append(labels, label)
			runIDs = append(runIDs, r)
		}
	}
	return features, labels, runIDs
}

// indexedStreams satisfies ports.RNGPort with plain seed arithmetic, enough
// for deterministic tests without pulling in the adapter.
type indexedStreams struct{}

func (indexedStreams) SeededStream(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func (indexedStreams) Stream(name string, unit int, baseSeed int64) *rand.Rand {
	return rand.New(rand.NewSource(baseSeed + int64(unit)*7919))
}
