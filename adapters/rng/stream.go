package rng

import (
	"hash/fnv"
	"math/rand"

	"fmridecode/ports"
)

// StreamFactory derives independent deterministic rand streams from a base
// seed and an operation name. Derivation hashes the name into the seed, so
// two operations sharing a base seed never consume each other's stream and
// results stay stable when an unrelated randomized step is added or removed.
type StreamFactory struct{}

// NewStreamFactory returns the default RNG port implementation.
func NewStreamFactory() *StreamFactory {
	return &StreamFactory{}
}

// SeededStream implements ports.RNGPort.
func (f *StreamFactory) SeededStream(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(deriveSeed(name, seed, 0)))
}

// Stream implements ports.RNGPort. Each unit (permutation index, fold index)
// gets its own generator so concurrent workers stay reproducible.
func (f *StreamFactory) Stream(name string, unit int, baseSeed int64) *rand.Rand {
	return rand.New(rand.NewSource(deriveSeed(name, baseSeed, unit)))
}

func deriveSeed(name string, seed int64, unit int) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
		buf[8+i] = byte(int64(unit) >> (8 * i))
	}
	h.Write(buf[:])
	return int64(h.Sum64())
}

var _ ports.RNGPort = (*StreamFactory)(nil)
