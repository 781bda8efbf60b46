package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// IAE integrates |error|·dt over the run (degree-seconds).
type IAE struct {
	name     string
	sum      float64
	lastTime float64
}

func NewIAE() *IAE {
	return &IAE{name: "iae"}
}

func (m *IAE) Name() string { return m.name }

func (m *IAE) Observe(r dynamo.Record) {
	m.sum += math.Abs(r.Error) * (r.Time - m.lastTime)
	m.lastTime = r.Time
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() {
	m.sum = 0
	m.lastTime = 0
}

// RMSError is the root mean square of the tracking error.
type RMSError struct {
	name   string
	errors []float64
}

func NewRMSError() *RMSError {
	return &RMSError{name: "rms_error"}
}

func (m *RMSError) Name() string { return m.name }

func (m *RMSError) Observe(r dynamo.Record) {
	m.errors = append(m.errors, r.Error*r.Error)
}

func (m *RMSError) Value() float64 {
	if len(m.errors) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(m.errors, nil))
}

func (m *RMSError) Reset() { m.errors = m.errors[:0] }

// Overshoot is how far the true position travelled past the target, in
// degrees, measured in the direction of the move. Zero when the target was
// never crossed. A hold move (start == target) has no direction, so any
// excursion from the target counts.
type Overshoot struct {
	name   string
	start  float64
	target float64
	peak   float64
}

func NewOvershoot(start, target float64) *Overshoot {
	return &Overshoot{
		name:   "overshoot",
		start:  start,
		target: target,
	}
}

func (m *Overshoot) Name() string { return m.name }

func (m *Overshoot) Observe(r dynamo.Record) {
	past := r.TruePosition - m.target
	switch {
	case m.target == m.start:
		past = math.Abs(past)
	case m.target < m.start:
		past = -past
	}
	if past > m.peak {
		m.peak = past
	}
}

func (m *Overshoot) Value() float64 { return m.peak }

func (m *Overshoot) Reset() { m.peak = 0 }

// SensorNoise is the standard deviation of measured − true position, which
// combines quantization and additive encoder noise.
type SensorNoise struct {
	name      string
	residuals []float64
}

func NewSensorNoise() *SensorNoise {
	return &SensorNoise{name: "sensor_noise_std"}
}

func (m *SensorNoise) Name() string { return m.name }

func (m *SensorNoise) Observe(r dynamo.Record) {
	m.residuals = append(m.residuals, r.MeasuredPosition-r.TruePosition)
}

func (m *SensorNoise) Value() float64 {
	if len(m.residuals) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(m.residuals, nil)
	return std
}

func (m *SensorNoise) Reset() { m.residuals = m.residuals[:0] }
