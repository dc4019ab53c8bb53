// Package returns samples annual asset-class returns and inflation for one scenario path.
package returns

import (
	"math/rand"
)

// Stream is the private random number context of one scenario. It is passed
// by value; the generator it wraps must never be shared between goroutines.
//
// A mirrored stream yields the antithetic counterpart of its unmirrored twin:
// Normal draws are negated and Uniform draws map u -> 1-u, while the raw draws
// used internally (e.g. chi-square scales) are left untouched.
type Stream struct {
	rng    *rand.Rand
	seed   int64
	mirror bool
}

// NewStream creates a stream seeded deterministically
func NewStream(seed int64) Stream {
	return Stream{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// StreamFor derives the stream for a scenario index. Without antithetic
// sampling every scenario gets baseSeed+index; with it, scenarios 2k and 2k+1
// share baseSeed+k and the odd member is mirrored.
func StreamFor(baseSeed int64, index int, antithetic bool) Stream {
	if !antithetic {
		return NewStream(baseSeed + int64(index))
	}
	s := NewStream(baseSeed + int64(index/2))
	s.mirror = index%2 == 1
	return s
}

// Mirrored returns a fresh stream with the same seed that produces the antithetic draws
func (s Stream) Mirrored() Stream {
	m := NewStream(s.seed)
	m.mirror = !s.mirror
	return m
}

// Seed returns the seed the stream was created from
func (s Stream) Seed() int64 { return s.seed }

// IsMirrored reports whether the stream produces antithetic draws
func (s Stream) IsMirrored() bool { return s.mirror }

// Valid reports whether the stream has a generator
func (s Stream) Valid() bool { return s.rng != nil }

// Normal returns a standard normal draw (negated when mirrored)
func (s Stream) Normal() float64 {
	z := s.rng.NormFloat64()
	if s.mirror {
		return -z
	}
	return z
}

// Uniform returns a draw in [0,1) (or (0,1] when mirrored)
func (s Stream) Uniform() float64 {
	u := s.rng.Float64()
	if s.mirror {
		return 1 - u
	}
	return u
}

func (s Stream) rawNormal() float64  { return s.rng.NormFloat64() }
func (s Stream) rawUniform() float64 { return s.rng.Float64() }
