package ports

// Predictor is a fitted, immutable classifier. Fitting never mutates an
// existing predictor; a new one is constructed per training set.
type Predictor interface {
	// Predict returns one category code per feature vector.
	Predict(features [][]float64) []int

	// Score returns mean accuracy of Predict(features) against labels.
	Score(features [][]float64, labels []int) (float64, error)
}

// Trainer produces a Predictor from training data. Implementations must be
// safe to call concurrently: each Fit works on its own state and returns a
// fresh value.
type Trainer interface {
	Fit(features [][]float64, labels []int) (Predictor, error)
}

// Split is one train/test partition expressed as row indices into the
// caller's feature matrix.
type Split struct {
	Train []int
	Test  []int
}

// SplitGenerator yields the train/test partitions of a cross-validation
// scheme, e.g. one split per scanning run for leave-one-run-out.
type SplitGenerator interface {
	Splits() ([]Split, error)
}
