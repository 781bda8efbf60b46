package metrics

import (
	"math"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// Saturation is the fraction of steps in which the controller output sat at
// or beyond limit.
type Saturation struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewSaturation(limit float64) *Saturation {
	return &Saturation{
		name:  "saturation",
		limit: limit,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(r dynamo.Record) {
	s.samples++
	if math.Abs(r.Control) >= s.limit {
		s.violations++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.violations) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.violations = 0
	s.samples = 0
}

// SettlingStep is the first step after which |error| stays within band for
// the rest of the run. It reports -1 while the error is outside the band.
type SettlingStep struct {
	name    string
	band    float64
	settled int
}

func NewSettlingStep(band float64) *SettlingStep {
	return &SettlingStep{
		name:    "settling_step",
		band:    band,
		settled: -1,
	}
}

func (s *SettlingStep) Name() string { return s.name }

func (s *SettlingStep) Observe(r dynamo.Record) {
	if math.Abs(r.Error) > s.band {
		s.settled = -1
		return
	}
	if s.settled < 0 {
		s.settled = r.Step
	}
}

func (s *SettlingStep) Value() float64 {
	return float64(s.settled)
}

func (s *SettlingStep) Reset() {
	s.settled = -1
}
