package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

// System is an ODE dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Controller turns a tracking error into a control signal. Implementations
// keep their own memory (integral, previous error) between calls.
type Controller interface {
	Compute(err, dErr, dt float64) float64
	Reset()
}

type Metric interface {
	Name() string
	Observe(r Record)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(r Record)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Record is one control step of a run.
type Record struct {
	Step             int     `json:"step"`
	Time             float64 `json:"time"`
	TruePosition     float64 `json:"true_position"`
	MeasuredPosition float64 `json:"measured_position"`
	Error            float64 `json:"error"`
	DeltaError       float64 `json:"delta_error"`
	Control          float64 `json:"control"`
	Voltage          float64 `json:"voltage"`
	Velocity         float64 `json:"velocity"`
	Current          float64 `json:"current"`
}

// Trace is append-only; consumers must treat it as read-only.
type Trace []Record

func (t Trace) Times() []float64 {
	return t.column(func(r Record) float64 { return r.Time })
}

func (t Trace) TruePositions() []float64 {
	return t.column(func(r Record) float64 { return r.TruePosition })
}

func (t Trace) MeasuredPositions() []float64 {
	return t.column(func(r Record) float64 { return r.MeasuredPosition })
}

func (t Trace) Errors() []float64 {
	return t.column(func(r Record) float64 { return r.Error })
}

func (t Trace) Controls() []float64 {
	return t.column(func(r Record) float64 { return r.Control })
}

func (t Trace) Voltages() []float64 {
	return t.column(func(r Record) float64 { return r.Voltage })
}

func (t Trace) column(f func(Record) float64) []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = f(r)
	}
	return out
}

type Outcome int

const (
	Running Outcome = iota
	Converged
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for c := Running; c <= Failed; c++ {
		if c.String() == string(text) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

type Summary struct {
	Outcome               Outcome `json:"outcome"`
	Converged             bool    `json:"converged"`
	StepsTaken            int     `json:"steps_taken"`
	StartPosition         float64 `json:"start_position"`
	TargetPosition        float64 `json:"target_position"`
	FinalTruePosition     float64 `json:"final_true_position"`
	FinalMeasuredPosition float64 `json:"final_measured_position"`
	FinalError            float64 `json:"final_error"`
}

type Config struct {
	Dt                float64
	MaxSteps          int
	Substeps          int
	VoltageScale      float64
	PositionThreshold float64
	DeltaThreshold    float64
	ValidateState     bool
}

func DefaultConfig() Config {
	return Config{
		Dt:                0.001,
		MaxSteps:          300,
		Substeps:          10,
		VoltageScale:      0.082,
		PositionThreshold: 0.5,
		DeltaThreshold:    0.5,
		ValidateState:     true,
	}
}

type Result struct {
	Trace   Trace              `json:"trace"`
	Summary Summary            `json:"summary"`
	Metrics map[string]float64 `json:"metrics"`
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
