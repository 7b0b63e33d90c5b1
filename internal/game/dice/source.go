package dice

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
)

// Source is the randomness provider injected into every generator and
// combat roll. Keeping it explicit makes all procedural content
// reproducible in tests.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns the production Source, backed by crypto/rand.
//
// Postcondition: every value returned by Intn is uniform in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource implements Source using a seeded math/rand generator.
// Not safe for concurrent use; intended for tests and replays.
type seededSource struct {
	rng *mathrand.Rand
}

// NewSeededSource returns a deterministic Source for the given seed.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

// Intn returns a deterministic pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.Intn(n)
}

// Between returns a uniform random int in the inclusive range [lo, hi].
//
// Precondition: hi >= lo.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		panic("dice: Between called with hi < lo")
	}
	return lo + src.Intn(hi-lo+1)
}
