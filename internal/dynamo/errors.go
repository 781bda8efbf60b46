package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates a run was rejected before it started.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericInstability indicates the plant state became NaN or Inf.
	ErrNumericInstability = errors.New("dynamo: numeric instability (NaN or Inf detected)")

	// ErrUnknownController indicates a controller name with no registered factory.
	ErrUnknownController = errors.New("dynamo: unknown controller")

	// ErrUnknownIntegrator indicates an integrator name with no registered factory.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return SimError{Time: e.Time, Step: e.Step, Message: e.Wrapped.Error()}.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
