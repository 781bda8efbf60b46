package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
	"github.com/san-kum/motorsim/internal/physics"
	"github.com/san-kum/motorsim/internal/sensor"
)

// Positions are accepted on one revolution centred on zero.
const (
	MinPosition = -180.0
	MaxPosition = 180.0
)

type Config struct {
	StartPosition     float64             `yaml:"start_position"`
	TargetPosition    float64             `yaml:"target_position"`
	Controller        string              `yaml:"controller"`
	Integrator        string              `yaml:"integrator"`
	Dt                float64             `yaml:"dt"`
	MaxSteps          int                 `yaml:"max_steps"`
	Substeps          int                 `yaml:"substeps"`
	VoltageScale      float64             `yaml:"voltage_scale"`
	PositionThreshold float64             `yaml:"position_threshold"`
	DeltaThreshold    float64             `yaml:"delta_threshold"`
	Seed              *int64              `yaml:"seed,omitempty"`
	Motor             physics.MotorParams `yaml:"motor"`
	Encoder           EncoderConfig       `yaml:"encoder"`
	PID               PIDConfig           `yaml:"pid"`
	Fuzzy             FuzzyConfig         `yaml:"fuzzy"`
}

type EncoderConfig struct {
	PPR      int     `yaml:"ppr"`
	NoiseStd float64 `yaml:"noise_std"`
}

type PIDConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type FuzzyConfig struct {
	Ki            float64 `yaml:"ki"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

func DefaultConfig() *Config {
	sc := dynamo.DefaultConfig()
	return &Config{
		Controller:        "pid",
		Integrator:        "rk4",
		Dt:                sc.Dt,
		MaxSteps:          sc.MaxSteps,
		Substeps:          sc.Substeps,
		VoltageScale:      sc.VoltageScale,
		PositionThreshold: sc.PositionThreshold,
		DeltaThreshold:    sc.DeltaThreshold,
		Motor:             physics.DefaultMotorParams(),
		Encoder: EncoderConfig{
			PPR:      sensor.DefaultPPR,
			NoiseStd: sensor.DefaultNoiseStd,
		},
		PID: PIDConfig{
			Kp: control.DefaultKp,
			Ki: control.DefaultKi,
			Kd: control.DefaultKd,
		},
		Fuzzy: FuzzyConfig{
			Ki:            control.DefaultFuzzyKi,
			IntegralLimit: control.DefaultFuzzyIntegralLimit,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes the file at path over cfg. Fields the file leaves out keep
// their current values, so a file can refine a preset.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigurationError reports the first field that failed validation.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return dynamo.ErrConfiguration
}

func invalid(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Validate rejects a configuration before any simulation starts.
func (c *Config) Validate() error {
	if err := checkPosition("start_position", c.StartPosition); err != nil {
		return err
	}
	if err := checkPosition("target_position", c.TargetPosition); err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	if !reg.HasController(c.Controller) {
		return invalid("controller", c.Controller, fmt.Sprintf("must be one of %v", reg.ListControllers()))
	}
	if !reg.HasIntegrator(c.Integrator) {
		return invalid("integrator", c.Integrator, fmt.Sprintf("must be one of %v", reg.ListIntegrators()))
	}

	switch {
	case !(c.Dt > 0) || math.IsInf(c.Dt, 0):
		return invalid("dt", c.Dt, "must be a positive number of seconds")
	case c.MaxSteps <= 0:
		return invalid("max_steps", c.MaxSteps, "must be positive")
	case c.Substeps <= 0:
		return invalid("substeps", c.Substeps, "must be positive")
	case math.IsNaN(c.VoltageScale) || math.IsInf(c.VoltageScale, 0):
		return invalid("voltage_scale", c.VoltageScale, "must be finite")
	case !(c.PositionThreshold > 0):
		return invalid("position_threshold", c.PositionThreshold, "must be positive")
	case !(c.DeltaThreshold > 0):
		return invalid("delta_threshold", c.DeltaThreshold, "must be positive")
	case c.Encoder.PPR <= 0:
		return invalid("encoder.ppr", c.Encoder.PPR, "must be positive")
	case !(c.Encoder.NoiseStd >= 0):
		return invalid("encoder.noise_std", c.Encoder.NoiseStd, "must be non-negative")
	case c.Fuzzy.IntegralLimit < 0:
		return invalid("fuzzy.integral_limit", c.Fuzzy.IntegralLimit, "must be non-negative")
	}

	if err := c.Motor.Validate(); err != nil {
		return invalid("motor", c.Motor, err.Error())
	}
	return nil
}

func checkPosition(field string, v float64) error {
	if math.IsNaN(v) || v < MinPosition || v > MaxPosition {
		return invalid(field, v, fmt.Sprintf("must be within [%g, %g] degrees", MinPosition, MaxPosition))
	}
	return nil
}

// IsConfigurationError reports whether err came from Validate.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ResolveSeed returns the configured seed, or a time-derived one when unset.
// Callers should report the resolved seed so the run can be reproduced.
func (c *Config) ResolveSeed() int64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return time.Now().UnixNano()
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:                c.Dt,
		MaxSteps:          c.MaxSteps,
		Substeps:          c.Substeps,
		VoltageScale:      c.VoltageScale,
		PositionThreshold: c.PositionThreshold,
		DeltaThreshold:    c.DeltaThreshold,
		ValidateState:     true,
	}
}

// ControllerParams returns the parameter overrides for the selected
// controller, keyed by the controller's own parameter names.
func (c *Config) ControllerParams() map[string]float64 {
	switch c.Controller {
	case "pid":
		return map[string]float64{"Kp": c.PID.Kp, "Ki": c.PID.Ki, "Kd": c.PID.Kd}
	case "fuzzy":
		return map[string]float64{"Ki": c.Fuzzy.Ki, "IntegralLimit": c.Fuzzy.IntegralLimit}
	}
	return nil
}

// Experiment converts the file form into a runnable experiment config.
func (c *Config) Experiment(seed int64) experiment.Config {
	return experiment.Config{
		Controller: c.Controller,
		Integrator: c.Integrator,
		Start:      c.StartPosition,
		Target:     c.TargetPosition,
		Seed:       seed,
		Sim:        c.SimConfig(),
		Motor:      c.Motor,
		PPR:        c.Encoder.PPR,
		NoiseStd:   c.Encoder.NoiseStd,
		Params:     c.ControllerParams(),
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Seed != nil {
		s := *c.Seed
		cp.Seed = &s
	}
	return &cp
}
