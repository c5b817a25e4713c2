package httputil

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	mathrand "math/rand"
	"sync"
)

// RandSource provides random numbers for jitter calculations.
type RandSource interface {
	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

var defaultRand RandSource = NewCryptoRandSource()

// CryptoRandSource is a math/rand generator seeded from crypto/rand.
// It is safe for concurrent use so one source can back every client in a
// process without synchronizing retry storms across processes.
type CryptoRandSource struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewCryptoRandSource creates a new cryptographically seeded random source.
func NewCryptoRandSource() *CryptoRandSource {
	return &CryptoRandSource{
		rand: mathrand.New(mathrand.NewSource(cryptoSeed())),
	}
}

// Float64 returns a random float64 in [0.0, 1.0).
func (c *CryptoRandSource) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rand.Float64()
}

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// FixedRandSource always returns the same value. Used in tests to pin
// jitter to its lower (0) or upper (~1) bound.
type FixedRandSource struct {
	value float64
}

// NewFixedRandSource creates a source returning value clamped to [0, 1).
func NewFixedRandSource(value float64) *FixedRandSource {
	return &FixedRandSource{value: math.Max(0, math.Min(value, 0.9999999999))}
}

// Float64 returns the fixed value.
func (f *FixedRandSource) Float64() float64 {
	return f.value
}
