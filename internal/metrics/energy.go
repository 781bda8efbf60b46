package metrics

import (
	"math"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// Energy is the electrical energy delivered to the armature, Σ V·i·dt, in
// joules. Regenerative intervals subtract.
type Energy struct {
	name     string
	total    float64
	lastTime float64
}

func NewEnergy() *Energy {
	return &Energy{
		name: "energy",
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(r dynamo.Record) {
	e.total += r.Voltage * r.Current * (r.Time - e.lastTime)
	e.lastTime = r.Time
}

func (e *Energy) Value() float64 {
	return e.total
}

func (e *Energy) Reset() {
	e.total = 0
	e.lastTime = 0
}

// PeakVoltage is the largest |V| applied during a run.
type PeakVoltage struct {
	name string
	peak float64
}

func NewPeakVoltage() *PeakVoltage {
	return &PeakVoltage{
		name: "peak_voltage",
	}
}

func (p *PeakVoltage) Name() string { return p.name }

func (p *PeakVoltage) Observe(r dynamo.Record) {
	if v := math.Abs(r.Voltage); v > p.peak {
		p.peak = v
	}
}

func (p *PeakVoltage) Value() float64 {
	return p.peak
}

func (p *PeakVoltage) Reset() {
	p.peak = 0
}
