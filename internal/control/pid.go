package control

import (
	"fmt"
	"math"
)

const (
	DefaultKp        = 2.0
	DefaultKi        = 0.5
	DefaultKd        = 0.1
	DefaultOutputMin = -100.0
	DefaultOutputMax = 100.0
)

// PID is a clamped PID with anti-windup. The derivative comes from the
// controller's own previous error, so the first call has no derivative kick.
type PID struct {
	Kp        float64
	Ki        float64
	Kd        float64
	OutputMin float64
	OutputMax float64
	integral  float64
	prevErr   float64
	first     bool
	p, i, d   float64
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:        kp,
		Ki:        ki,
		Kd:        kd,
		OutputMin: DefaultOutputMin,
		OutputMax: DefaultOutputMax,
		first:     true,
	}
}

func (p *PID) Compute(err, _ float64, dt float64) float64 {
	derivative := 0.0
	if !p.first && dt > 0 {
		derivative = (err - p.prevErr) / dt
	}
	p.prevErr = err
	p.first = false

	candidate := p.integral
	if dt > 0 {
		candidate += err * dt
	}

	// Integrate only while the output is not pushed further into saturation.
	raw := p.Kp*err + p.Ki*candidate + p.Kd*derivative
	if !(raw > p.OutputMax && err > 0) && !(raw < p.OutputMin && err < 0) {
		p.integral = candidate
	}
	p.clampIntegral()

	p.p = p.Kp * err
	p.i = p.Ki * p.integral
	p.d = p.Kd * derivative

	return p.clamp(p.p + p.i + p.d)
}

// clampIntegral keeps Ki·∫e within the output limits.
func (p *PID) clampIntegral() {
	if p.Ki == 0 {
		return
	}
	lo, hi := p.OutputMin/p.Ki, p.OutputMax/p.Ki
	if lo > hi {
		lo, hi = hi, lo
	}
	p.integral = math.Max(lo, math.Min(hi, p.integral))
}

func (p *PID) clamp(u float64) float64 {
	if u > p.OutputMax {
		return p.OutputMax
	}
	if u < p.OutputMin {
		return p.OutputMin
	}
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
	p.p, p.i, p.d = 0, 0, 0
}

// Components returns the proportional, integral and derivative terms of the
// latest Compute, before clamping.
func (p *PID) Components() (float64, float64, float64) {
	return p.p, p.i, p.d
}

func (p *PID) Integral() float64 {
	return p.integral
}

func (p *PID) SetTunings(kp, ki, kd float64) {
	p.Kp, p.Ki, p.Kd = kp, ki, kd
	p.clampIntegral()
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	p.clampIntegral()
	return nil
}
