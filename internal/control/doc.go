// Package control provides the two position controllers compared by the
// simulator.
//
// Both implement [dynamo.Controller], taking the error (target − measured,
// degrees), its rate (degrees/second) and the control period:
//
//   - [Fuzzy]: 3×3 Mamdani rule base over error and error rate, centroid
//     defuzzification, plus a small integral term
//   - [PID]: clamped to ±100 with conditional-integration anti-windup
//
// The rule base is plain data ([RuleTable] and the [Variable] universes)
// evaluated by [Inference.Evaluate].
//
// # Usage
//
//	pid := control.NewPID(2.0, 0.5, 0.1)
//	u := pid.Compute(err, dErr, 0.001)
//
// Controllers implementing [dynamo.Configurable] support live tuning.
package control
