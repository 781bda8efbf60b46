// Package physics provides the DC motor plant.
//
// [DCMotor] implements [dynamo.System] with state (θ, ω, i) and the applied
// voltage as its only input:
//
//	L·di/dt = V − R·i − K_b·ω
//	J·dω/dt = K_m·i − K_f·ω
//	dθ/dt   = ω
//
// [Plant] owns one [MotorState] per run and advances it with any
// [dynamo.Integrator], splitting each control period into sub-steps because
// the electrical time constant L/R is much shorter than the mechanical one.
//
//	plant := physics.NewPlant(physics.DefaultMotorParams(), integrators.NewRK4(), -90)
//	state := plant.Step(voltage, 0.001, 10)
package physics
