// Package experiment assembles one simulation run from names and numbers:
// it looks up the controller and integrator, builds the plant and encoder,
// and owns the run's random source.
package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/physics"
	"github.com/san-kum/motorsim/internal/sensor"
	"github.com/san-kum/motorsim/internal/sim"
)

type Config struct {
	Controller string
	Integrator string
	Start      float64 // degrees
	Target     float64 // degrees
	Seed       int64
	Sim        dynamo.Config
	Motor      physics.MotorParams
	PPR        int
	NoiseStd   float64 // degrees
	Params     map[string]float64
}

// DefaultConfig is a PID run from 0° to 0° with the nominal plant.
func DefaultConfig() Config {
	return Config{
		Controller: "pid",
		Integrator: "rk4",
		Sim:        dynamo.DefaultConfig(),
		Motor:      physics.DefaultMotorParams(),
		PPR:        sensor.DefaultPPR,
		NoiseStd:   sensor.DefaultNoiseStd,
	}
}

type Experiment struct {
	cfg        Config
	simulator  *sim.Simulator
	plant      *physics.Plant
	encoder    *sensor.Encoder
	controller dynamo.Controller
	randSource *rand.Rand
}

func New(cfg Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup builds the plant, encoder and controller. Name lookups fail with
// dynamo.ErrUnknownController or dynamo.ErrUnknownIntegrator.
func (e *Experiment) Setup(reg *Registry, metrics []dynamo.Metric, opts ...sim.Option) error {
	if err := e.cfg.Motor.Validate(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrConfiguration, err)
	}
	if e.cfg.PPR <= 0 {
		return fmt.Errorf("%w: encoder PPR must be positive, got %d", dynamo.ErrConfiguration, e.cfg.PPR)
	}

	integrator, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	controller, err := reg.GetController(e.cfg.Controller, e.cfg.Params)
	if err != nil {
		return err
	}

	e.plant = physics.NewPlant(e.cfg.Motor, integrator, e.cfg.Start)
	e.encoder = sensor.NewEncoder(e.cfg.PPR, e.cfg.NoiseStd, e.randSource)
	e.controller = controller

	e.simulator = sim.New(e.plant, e.encoder, controller, opts...)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.Target, e.cfg.Sim)
}

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Controller() dynamo.Controller {
	return e.controller
}

func (e *Experiment) Config() Config {
	return e.cfg
}

// RunFunc adapts cfg for dynamo.Ensemble: every call builds an independent
// experiment with its own seed.
func RunFunc(reg *Registry, cfg Config, opts ...sim.Option) dynamo.RunFunc {
	return func(ctx context.Context, seed int64) (*dynamo.Result, error) {
		c := cfg
		c.Seed = seed
		exp := New(c)
		if err := exp.Setup(reg, reg.DefaultMetrics(c.Start, c.Target, c.Sim), opts...); err != nil {
			return nil, err
		}
		return exp.Run(ctx)
	}
}
