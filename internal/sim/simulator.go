package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/physics"
	"github.com/san-kum/motorsim/internal/sensor"
)

// ProgressInterval is how often (in control steps) a run logs its progress.
const ProgressInterval = 20

// Simulator closes the loop plant → encoder → controller → plant for one run.
// It is not safe for concurrent use.
type Simulator struct {
	plant      *physics.Plant
	encoder    *sensor.Encoder
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.Logger
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(plant *physics.Plant, encoder *sensor.Encoder, controller dynamo.Controller, opts ...Option) *Simulator {
	s := &Simulator{
		plant:      plant,
		encoder:    encoder,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run drives the motor toward target (degrees) until the error settles or
// cfg.MaxSteps control steps have elapsed. A timed-out run is not an error;
// it is reported through Summary.Outcome. A non-finite plant state aborts the
// run with a *dynamo.SimulationError wrapping dynamo.ErrNumericInstability,
// and the partial result is returned alongside it.
func (s *Simulator) Run(ctx context.Context, target float64, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(target, cfg); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Trace:   make(dynamo.Trace, 0, cfg.MaxSteps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.controller.Reset()

	state := s.plant.State()
	start := state.PositionDeg()
	measured := s.encoder.Read(start)
	prevErr := target - measured

	summary := &result.Summary
	summary.Outcome = dynamo.Running
	summary.StartPosition = start
	summary.TargetPosition = target

	s.record(result, dynamo.Record{
		TruePosition:     start,
		MeasuredPosition: measured,
		Error:            prevErr,
		Velocity:         state.VelocityDeg(),
		Current:          state.Current,
	}, false)

	s.logger.Info("simulation started",
		zap.Float64("start", start),
		zap.Float64("target", target),
		zap.Int("encoder_ppr", s.encoder.PPR()),
		zap.Float64("encoder_resolution", s.encoder.Resolution()),
		zap.Float64("encoder_noise_std", s.encoder.NoiseStd()),
		zap.Float64("dt", cfg.Dt),
		zap.Int("max_steps", cfg.MaxSteps),
	)

	lastErr := prevErr
	for step := 1; step <= cfg.MaxSteps; step++ {
		select {
		case <-ctx.Done():
			s.finish(result, state, measured, lastErr)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		err := target - measured
		change := err - prevErr
		dErr := change / cfg.Dt

		u := s.controller.Compute(err, dErr, cfg.Dt)
		voltage := u * cfg.VoltageScale

		state = s.plant.Step(voltage, cfg.Dt, cfg.Substeps)
		t := float64(step) * cfg.Dt
		lastErr = err

		if cfg.ValidateState && !state.IsValid() {
			summary.Outcome = dynamo.Failed
			summary.StepsTaken = step
			s.finish(result, state, measured, err)
			s.logger.Error("numeric instability", zap.Int("step", step), zap.Float64("voltage", voltage))
			return result, &dynamo.SimulationError{
				Step:    step,
				Time:    t,
				State:   dynamo.State{state.Position, state.Velocity, state.Current},
				Wrapped: dynamo.ErrNumericInstability,
			}
		}

		measured = s.encoder.Read(state.PositionDeg())

		s.record(result, dynamo.Record{
			Step:             step,
			Time:             t,
			TruePosition:     state.PositionDeg(),
			MeasuredPosition: measured,
			Error:            err,
			DeltaError:       dErr,
			Control:          u,
			Voltage:          voltage,
			Velocity:         state.VelocityDeg(),
			Current:          state.Current,
		}, true)
		summary.StepsTaken = step

		if step%ProgressInterval == 0 {
			s.logger.Debug("progress",
				zap.Int("step", step),
				zap.Float64("time", t),
				zap.Float64("actual", state.PositionDeg()),
				zap.Float64("measured", measured),
				zap.Float64("error", err),
				zap.Float64("voltage", voltage),
				zap.Int64("count", s.encoder.Count()),
			)
		}

		prevErr = err

		if math.Abs(err) < cfg.PositionThreshold && math.Abs(change) < cfg.DeltaThreshold {
			summary.Outcome = dynamo.Converged
			summary.Converged = true
			break
		}
	}

	if summary.Outcome == dynamo.Running {
		summary.Outcome = dynamo.TimedOut
	}
	s.finish(result, state, measured, lastErr)

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("simulation finished",
		zap.Stringer("outcome", summary.Outcome),
		zap.Int("steps", summary.StepsTaken),
		zap.Float64("final_position", summary.FinalTruePosition),
		zap.Float64("final_error", summary.FinalError),
	)

	return result, nil
}

func (s *Simulator) record(result *dynamo.Result, r dynamo.Record, observe bool) {
	result.Trace = append(result.Trace, r)
	if observe {
		for _, m := range s.metrics {
			m.Observe(r)
		}
	}
	for _, obs := range s.observers {
		obs.OnStep(r)
	}
}

func (s *Simulator) finish(result *dynamo.Result, state physics.MotorState, measured, err float64) {
	result.Summary.FinalTruePosition = state.PositionDeg()
	result.Summary.FinalMeasuredPosition = measured
	result.Summary.FinalError = err
}

func (s *Simulator) validateConfig(target float64, cfg dynamo.Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrConfiguration, cfg.Dt)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", dynamo.ErrConfiguration, cfg.MaxSteps)
	}
	if math.IsNaN(cfg.VoltageScale) || math.IsInf(cfg.VoltageScale, 0) {
		return fmt.Errorf("%w: voltage scale must be finite", dynamo.ErrConfiguration)
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("%w: target must be finite", dynamo.ErrConfiguration)
	}
	if s.controller == nil {
		return fmt.Errorf("%w: no controller", dynamo.ErrConfiguration)
	}
	return nil
}
