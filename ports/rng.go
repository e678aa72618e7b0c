package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Every randomized step (permutation shuffles, fold shuffling,
// SVM subgradient sampling) receives an explicit *rand.Rand from here;
// nothing in the codebase seeds or reads process-global random state.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	// The same (name, seed) pair always yields an identical stream.
	SeededStream(name string, seed int64) *rand.Rand

	// Stream derives a generator for one unit of work inside a named
	// operation, so concurrent workers get independent but reproducible
	// streams (permutation i, fold k, ...).
	Stream(name string, unit int, baseSeed int64) *rand.Rand
}
