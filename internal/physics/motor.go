package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// State vector layout for DCMotor.
const (
	IdxPosition = iota // θ, rad
	IdxVelocity        // ω, rad/s
	IdxCurrent         // i, A
)

// MotorParams are the physical constants of a permanent-magnet DC motor.
type MotorParams struct {
	J  float64 `yaml:"j" json:"j"`   // rotor inertia, kg·m²
	Kf float64 `yaml:"kf" json:"kf"` // viscous friction, N·m·s/rad
	Km float64 `yaml:"km" json:"km"` // torque constant, N·m/A
	Kb float64 `yaml:"kb" json:"kb"` // back-EMF constant, V·s/rad
	R  float64 `yaml:"r" json:"r"`   // armature resistance, Ω
	L  float64 `yaml:"l" json:"l"`   // armature inductance, H
}

func DefaultMotorParams() MotorParams {
	return MotorParams{
		J:  3.2e-6,
		Kf: 3.5e-6,
		Km: 0.03,
		Kb: 0.03,
		R:  4.0,
		L:  0.001,
	}
}

func (p MotorParams) Validate() error {
	for name, v := range map[string]float64{"j": p.J, "km": p.Km, "r": p.R, "l": p.L} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("motor parameter %s must be positive, got %g", name, v)
		}
	}
	if p.Kf < 0 || p.Kb < 0 {
		return fmt.Errorf("motor friction and back-EMF must be non-negative")
	}
	return nil
}

// ElectricalTimeConstant is L/R.
func (p MotorParams) ElectricalTimeConstant() float64 {
	return p.L / p.R
}

// DCMotor is the armature + rotor ODE. The single control input is the
// applied voltage.
type DCMotor struct {
	params MotorParams
}

func NewDCMotor(params MotorParams) *DCMotor {
	return &DCMotor{params: params}
}

func (m *DCMotor) StateDim() int {
	return 3
}

func (m *DCMotor) ControlDim() int {
	return 1
}

func (m *DCMotor) Params() MotorParams {
	return m.params
}

func (m *DCMotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p := m.params
	omega := x[IdxVelocity]
	current := x[IdxCurrent]

	voltage := 0.0
	if len(u) > 0 {
		voltage = u[0]
	}

	dTheta := omega
	dOmega := (p.Km*current - p.Kf*omega) / p.J
	dCurrent := (voltage - p.R*current - p.Kb*omega) / p.L

	return dynamo.State{dTheta, dOmega, dCurrent}
}

func (m *DCMotor) GetParams() map[string]float64 {
	return map[string]float64{
		"J":  m.params.J,
		"Kf": m.params.Kf,
		"Km": m.params.Km,
		"Kb": m.params.Kb,
		"R":  m.params.R,
		"L":  m.params.L,
	}
}

func (m *DCMotor) SetParam(name string, value float64) error {
	switch name {
	case "J":
		m.params.J = value
	case "Kf":
		m.params.Kf = value
	case "Km":
		m.params.Km = value
	case "Kb":
		m.params.Kb = value
	case "R":
		m.params.R = value
	case "L":
		m.params.L = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
