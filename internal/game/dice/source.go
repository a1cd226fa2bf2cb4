package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
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

// seededSource is a deterministic Source for replaying recorded sessions.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a Source whose sequence is fully determined by seed.
//
// Postcondition: Two sources built from the same seed yield identical sequences
// for identical call patterns.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Sequence is a scripted Source that replays fixed values in order.
// Each returned value is reduced modulo n so scripts stay in range.
// It is intended for tests that pin exact rolls.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence returns a Sequence that yields values in order and then repeats
// the final value.
//
// Precondition: len(values) > 0.
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		panic("dice: NewSequence requires at least one value")
	}
	return &Sequence{values: values}
}

// Intn returns the next scripted value modulo n.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return ((v % n) + n) % n
}
