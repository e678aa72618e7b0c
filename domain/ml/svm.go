package ml

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"fmridecode/domain/core"
	"fmridecode/ports"
)

// LinearSVM trains one-vs-rest linear support vector machines by Pegasos-style
// stochastic subgradient descent on the hinge loss. The trainer itself is a
// plain value of configuration: Fit never mutates it and always returns a new
// immutable predictor, so one LinearSVM can drive concurrent folds.
type LinearSVM struct {
	C      float64 // inverse regularization strength; lambda = 1/(C*n)
	Epochs int     // passes over the training set (default 20)
	Seed   int64   // seed for example sampling, fit-local
}

// NewLinearSVM returns a trainer with the given regularization and seed.
func NewLinearSVM(c float64, seed int64) LinearSVM {
	return LinearSVM{C: c, Epochs: 20, Seed: seed}
}

// Fit implements ports.Trainer.
func (t LinearSVM) Fit(features [][]float64, labels []int) (ports.Predictor, error) {
	if len(features) != len(labels) {
		return nil, core.NewShapeError(len(features), len(labels))
	}
	if len(features) == 0 {
		return nil, core.ErrInsufficientData
	}
	if t.C <= 0 {
		return nil, core.NewValidationError("C", "must be > 0")
	}

	classes := distinctClasses(labels)
	if len(classes) < 2 {
		return nil, core.NewValidationError("labels", "need at least 2 classes")
	}

	epochs := t.Epochs
	if epochs <= 0 {
		epochs = 20
	}

	n := len(features)
	dim := len(features[0])
	lambda := 1.0 / (t.C * float64(n))
	rng := rand.New(rand.NewSource(t.Seed))

	weights := make([][]float64, len(classes))
	biases := make([]float64, len(classes))

	// One binary hinge problem per class, sharing the sampling stream so the
	// whole fit is a single deterministic function of (data, C, seed).
	for ci, class := range classes {
		w := make([]float64, dim)
		b := 0.0
		step := 0
		for e := 0; e < epochs; e++ {
			for k := 0; k < n; k++ {
				step++
				i := rng.Intn(n)
				y := -1.0
				if labels[i] == class {
					y = 1.0
				}
				eta := 1.0 / (lambda * float64(step))

				margin := y * (floats.Dot(w, features[i]) + b)
				floats.Scale(1-eta*lambda, w)
				if margin < 1 {
					floats.AddScaled(w, eta*y, features[i])
					b += eta * y
				}
			}
		}
		weights[ci] = w
		biases[ci] = b
	}

	return &linearPredictor{classes: classes, weights: weights, biases: biases}, nil
}

// linearPredictor is the fitted artifact: frozen weights, no further training.
type linearPredictor struct {
	classes []int
	weights [][]float64
	biases  []float64
}

// Predict returns the class with the largest decision value per row.
func (p *linearPredictor) Predict(features [][]float64) []int {
	out := make([]int, len(features))
	for i, x := range features {
		best := 0
		bestScore := floats.Dot(p.weights[0], x) + p.biases[0]
		for c := 1; c < len(p.classes); c++ {
			score := floats.Dot(p.weights[c], x) + p.biases[c]
			if score > bestScore {
				bestScore = score
				best = c
			}
		}
		out[i] = p.classes[best]
	}
	return out
}

// Score returns mean accuracy against the given labels.
func (p *linearPredictor) Score(features [][]float64, labels []int) (float64, error) {
	if len(features) != len(labels) {
		return 0, core.NewShapeError(len(features), len(labels))
	}
	if len(features) == 0 {
		return 0, core.ErrInsufficientData
	}
	predicted := p.Predict(features)
	hits := 0
	for i, y := range predicted {
		if y == labels[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(labels)), nil
}

// distinctClasses returns the sorted set of category codes.
func distinctClasses(labels []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}
