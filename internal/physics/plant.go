package physics

import (
	"math"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// MotorState is the true (unmeasured) state of the rotor and armature.
type MotorState struct {
	Position float64 // rad
	Velocity float64 // rad/s
	Current  float64 // A
}

func (s MotorState) PositionDeg() float64 {
	return s.Position * 180 / math.Pi
}

func (s MotorState) VelocityDeg() float64 {
	return s.Velocity * 180 / math.Pi
}

func (s MotorState) vector() dynamo.State {
	return dynamo.State{s.Position, s.Velocity, s.Current}
}

func (s MotorState) IsValid() bool {
	return s.vector().IsValid()
}

// Plant owns the motor state for one run. Step is the only mutator.
type Plant struct {
	motor      *DCMotor
	integrator dynamo.Integrator
	state      MotorState
	t          float64
	u          dynamo.Control
}

// NewPlant starts the motor at rest at startDeg.
func NewPlant(params MotorParams, integrator dynamo.Integrator, startDeg float64) *Plant {
	return &Plant{
		motor:      NewDCMotor(params),
		integrator: integrator,
		state:      MotorState{Position: startDeg * math.Pi / 180},
		u:          make(dynamo.Control, 1),
	}
}

// Step holds voltage constant for dt, split into substeps integrations.
// The voltage is not clamped.
func (p *Plant) Step(voltage, dt float64, substeps int) MotorState {
	if substeps <= 0 {
		substeps = 1
	}
	h := dt / float64(substeps)
	p.u[0] = voltage

	x := p.state.vector()
	for i := 0; i < substeps; i++ {
		x = p.integrator.Step(p.motor, x, p.u, p.t, h)
		p.t += h
	}

	p.state = MotorState{
		Position: x[IdxPosition],
		Velocity: x[IdxVelocity],
		Current:  x[IdxCurrent],
	}
	return p.state
}

func (p *Plant) State() MotorState {
	return p.state
}

// Time is the simulated time the plant has been integrated for.
func (p *Plant) Time() float64 {
	return p.t
}

func (p *Plant) Motor() *DCMotor {
	return p.motor
}
