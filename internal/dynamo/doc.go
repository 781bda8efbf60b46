// Package dynamo provides core simulation primitives for closed-loop motor
// position control.
//
// The package defines the shared interfaces and value types:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: feedback controller interface
//   - [Record], [Trace], [Summary]: what a run produces
//
// # Thread Safety
//
// Controllers, plants and encoders are NOT thread-safe. For parallel runs,
// use [Ensemble], which builds a fresh set per seed.
package dynamo
