// Package sensor models the rotary encoder that closes the position loop.
package sensor

import (
	"math"
	"math/rand"
)

const (
	DefaultPPR      = 1000
	DefaultNoiseStd = 0.1 // degrees
)

// Encoder quantizes the true shaft angle to whole counts and adds zero-mean
// Gaussian noise drawn from the random source it was built with.
type Encoder struct {
	ppr        int
	noiseStd   float64
	resolution float64
	rng        *rand.Rand

	count    int64
	previous float64
}

// NewEncoder panics if ppr is not positive. A nil rng disables noise.
func NewEncoder(ppr int, noiseStd float64, rng *rand.Rand) *Encoder {
	if ppr <= 0 {
		panic("sensor: pulses per revolution must be positive")
	}
	return &Encoder{
		ppr:        ppr,
		noiseStd:   noiseStd,
		resolution: 360.0 / float64(ppr),
		rng:        rng,
	}
}

// Read returns the measured position in degrees.
func (e *Encoder) Read(trueDeg float64) float64 {
	counts := math.Round(trueDeg / e.resolution)
	measured := counts * e.resolution

	if e.noiseStd > 0 && e.rng != nil {
		measured += e.rng.NormFloat64() * e.noiseStd
	}

	e.count = int64(counts)
	e.previous = measured
	return measured
}

// Count is the raw count from the latest Read.
func (e *Encoder) Count() int64 {
	return e.count
}

// Resolution is degrees per count.
func (e *Encoder) Resolution() float64 {
	return e.resolution
}

func (e *Encoder) PPR() int {
	return e.ppr
}

func (e *Encoder) NoiseStd() float64 {
	return e.noiseStd
}

// Velocity estimates degrees/second between the latest Read and pos.
func (e *Encoder) Velocity(pos, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return (pos - e.previous) / dt
}

func (e *Encoder) Reset() {
	e.count = 0
	e.previous = 0
}
