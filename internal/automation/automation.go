// Package automation runs many simulations from one description: YAML batch
// scenarios, parameter sweeps and Monte Carlo trials over start and target.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/motorsim/internal/config"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
	"github.com/san-kum/motorsim/internal/physics"
	"github.com/san-kum/motorsim/internal/sim"
)

// Scenario is a named list of runs sharing one base configuration.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        *config.Config `yaml:"base"`
	Runs        []ScenarioRun  `yaml:"runs"`
}

// ScenarioRun overrides the base configuration for one run. Zero-valued
// pointers keep the base value.
type ScenarioRun struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Start      *float64           `yaml:"start_position"`
	Target     *float64           `yaml:"target_position"`
	Controller string             `yaml:"controller"`
	Integrator string             `yaml:"integrator"`
	MaxSteps   int                `yaml:"max_steps"`
	Seed       *int64             `yaml:"seed"`
	Params     map[string]float64 `yaml:"params"`
}

// RunReport is the outcome of one scenario run.
type RunReport struct {
	Name   string
	Seed   int64
	Config *config.Config
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Base: config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %q has no runs", scenario.Name)
	}
	return &scenario, nil
}

// Resolve applies the run's overrides to base and validates the result.
func (r ScenarioRun) Resolve(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if r.Preset != "" {
		p, ok := config.Presets[r.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", r.Preset)
		}
		cfg.StartPosition, cfg.TargetPosition, cfg.Controller = p.Start, p.Target, p.Controller
	}
	if r.Start != nil {
		cfg.StartPosition = *r.Start
	}
	if r.Target != nil {
		cfg.TargetPosition = *r.Target
	}
	if r.Controller != "" {
		cfg.Controller = r.Controller
	}
	if r.Integrator != "" {
		cfg.Integrator = r.Integrator
	}
	if r.MaxSteps > 0 {
		cfg.MaxSteps = r.MaxSteps
	}
	if r.Seed != nil {
		s := *r.Seed
		cfg.Seed = &s
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all runs in order. A configuration error or a
// numeric failure stops the batch; timed-out runs are reported and the batch
// continues.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *zap.Logger) ([]RunReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := scenario.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	reports := make([]RunReport, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		logger.Info("running scenario step",
			zap.String("scenario", scenario.Name),
			zap.String("run", name),
			zap.Int("index", i+1),
			zap.Int("total", len(scenario.Runs)),
		)

		cfg, err := run.Resolve(base)
		if err != nil {
			return reports, fmt.Errorf("run %s: %w", name, err)
		}

		seed := cfg.ResolveSeed()
		ec := cfg.Experiment(seed)
		for k, v := range run.Params {
			if ec.Params == nil {
				ec.Params = make(map[string]float64)
			}
			ec.Params[k] = v
		}

		result, err := runOnce(ctx, registry, ec, logger)
		if err != nil {
			return reports, fmt.Errorf("run %s: %w", name, err)
		}

		reports = append(reports, RunReport{Name: name, Seed: seed, Config: cfg, Result: result})
	}

	return reports, nil
}

func runOnce(ctx context.Context, registry *experiment.Registry, ec experiment.Config, logger *zap.Logger) (*dynamo.Result, error) {
	exp := experiment.New(ec)
	metrics := registry.DefaultMetrics(ec.Start, ec.Target, ec.Sim)
	if err := exp.Setup(registry, metrics, sim.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	return exp.Run(ctx)
}

// ParameterSweep varies one parameter linearly between Min and Max.
// Names with a "motor." prefix address the plant (motor.R, motor.J, ...);
// anything else is passed to the controller.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Seed      int64
}

type SweepResult struct {
	ParamValue float64
	Outcome    dynamo.Outcome
	StepsTaken int
	FinalError float64
	Metrics    map[string]float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *zap.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		ec := base.Experiment(sweep.Seed)
		if motorParam, ok := strings.CutPrefix(sweep.ParamName, "motor."); ok {
			motor := physics.NewDCMotor(ec.Motor)
			if err := motor.SetParam(motorParam, paramVal); err != nil {
				return nil, err
			}
			ec.Motor = motor.Params()
		} else {
			params := make(map[string]float64, len(ec.Params)+1)
			for k, v := range ec.Params {
				params[k] = v
			}
			params[sweep.ParamName] = paramVal
			ec.Params = params
		}

		result, err := runOnce(ctx, registry, ec, logger)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Outcome:    result.Summary.Outcome,
			StepsTaken: result.Summary.StepsTaken,
			FinalError: result.Summary.FinalError,
			Metrics:    result.Metrics,
		})

		logger.Debug("sweep point",
			zap.Int("index", i+1),
			zap.String("param", sweep.ParamName),
			zap.Float64("value", paramVal),
			zap.Stringer("outcome", result.Summary.Outcome),
		)
	}

	return results, nil
}

// MonteCarloConfig perturbs start and target uniformly by up to
// ±Perturbation degrees, clamped to the valid position range.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	Start      float64
	Target     float64
	Outcome    dynamo.Outcome
	StepsTaken int
	FinalError float64
}

// RunMonteCarlo executes the trials in parallel. Trial i uses seed Seed+i for
// both the perturbation and the encoder noise, so results do not depend on
// scheduling.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, logger *zap.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	trials := make([]MonteCarloResult, cfg.NumTrials)
	run := func(ctx context.Context, seed int64) (*dynamo.Result, error) {
		rng := perturbSource(seed)
		ec := base.Experiment(seed)
		ec.Start = perturb(base.StartPosition, cfg.Perturbation, rng)
		ec.Target = perturb(base.TargetPosition, cfg.Perturbation, rng)
		return runOnce(ctx, registry, ec, logger)
	}

	ensemble := dynamo.NewEnsemble(run, cfg.NumTrials, cfg.Seed)
	if cfg.Workers > 0 {
		ensemble.SetWorkers(cfg.Workers)
	}
	results, err := ensemble.Run(ctx)
	if err != nil {
		return nil, err
	}

	for i, r := range results {
		trials[i] = MonteCarloResult{
			TrialID:    i,
			Seed:       cfg.Seed + int64(i),
			Start:      r.Summary.StartPosition,
			Target:     r.Summary.TargetPosition,
			Outcome:    r.Summary.Outcome,
			StepsTaken: r.Summary.StepsTaken,
			FinalError: r.Summary.FinalError,
		}
	}
	logger.Info("monte carlo complete", zap.Int("trials", cfg.NumTrials))
	return trials, nil
}

// perturbSeedMask separates a trial's perturbation stream from its encoder
// noise stream, which is seeded with the trial seed itself.
const perturbSeedMask = 0x5eed

func perturbSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ perturbSeedMask))
}

func perturb(v, amount float64, rng *rand.Rand) float64 {
	v += (rng.Float64() - 0.5) * 2 * amount
	return math.Max(config.MinPosition, math.Min(config.MaxPosition, v))
}

// MonteCarloStats counts converged and timed-out trials.
func MonteCarloStats(results []MonteCarloResult) (converged int, timedOut int) {
	for _, r := range results {
		switch r.Outcome {
		case dynamo.Converged:
			converged++
		case dynamo.TimedOut:
			timedOut++
		}
	}
	return
}
