package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
)

func TestRegistryLists(t *testing.T) {
	reg := NewRegistry()

	if got := reg.ListControllers(); len(got) != 2 || got[0] != "fuzzy" || got[1] != "pid" {
		t.Errorf("controllers = %v", got)
	}
	if got := reg.ListIntegrators(); len(got) != 2 || got[0] != "euler" || got[1] != "rk4" {
		t.Errorf("integrators = %v", got)
	}
}

func TestRegistryUnknownNames(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.GetController("bang-bang", nil); !errors.Is(err, dynamo.ErrUnknownController) {
		t.Errorf("controller error = %v", err)
	}
	if _, err := reg.GetIntegrator("verlet"); !errors.Is(err, dynamo.ErrUnknownIntegrator) {
		t.Errorf("integrator error = %v", err)
	}
}

func TestRegistryControllerParams(t *testing.T) {
	reg := NewRegistry()

	c, err := reg.GetController("pid", map[string]float64{"Kp": 4, "Kd": 0.2})
	if err != nil {
		t.Fatal(err)
	}
	pid := c.(*control.PID)
	if pid.Kp != 4 || pid.Kd != 0.2 || pid.Ki != control.DefaultKi {
		t.Errorf("pid gains = %v %v %v", pid.Kp, pid.Ki, pid.Kd)
	}

	if _, err := reg.GetController("pid", map[string]float64{"Kx": 1}); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRegistryFreshInstances(t *testing.T) {
	reg := NewRegistry()
	a, _ := reg.GetController("fuzzy", nil)
	b, _ := reg.GetController("fuzzy", nil)
	if a == b {
		t.Error("registry returned a shared controller")
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Start = -90
	cfg.Target = 45
	cfg.Seed = 42

	reg := NewRegistry()
	exp := New(cfg)
	if err := exp.Setup(reg, reg.DefaultMetrics(cfg.Start, cfg.Target, cfg.Sim)); err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Summary.Converged {
		t.Errorf("outcome %v after %d steps", result.Summary.Outcome, result.Summary.StepsTaken)
	}
	for _, name := range []string{"control_effort", "iae", "overshoot", "settling_step"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}

func TestExperimentNotSetup(t *testing.T) {
	if _, err := New(DefaultConfig()).Run(context.Background()); err == nil {
		t.Error("expected error running without setup")
	}
}

func TestExperimentSetupErrors(t *testing.T) {
	reg := NewRegistry()

	cfg := DefaultConfig()
	cfg.Controller = "lqr"
	if err := New(cfg).Setup(reg, nil); !errors.Is(err, dynamo.ErrUnknownController) {
		t.Errorf("unknown controller: %v", err)
	}

	cfg = DefaultConfig()
	cfg.PPR = 0
	if err := New(cfg).Setup(reg, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("zero PPR: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Motor.L = 0
	if err := New(cfg).Setup(reg, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("zero inductance: %v", err)
	}
}

func TestEnsembleDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Start = -90
	cfg.Target = 45
	reg := NewRegistry()

	first, err := dynamo.NewEnsemble(RunFunc(reg, cfg), 4, 100).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := dynamo.NewEnsemble(RunFunc(reg, cfg), 4, 100).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if len(first[i].Trace) != len(second[i].Trace) {
			t.Fatalf("run %d: trace lengths differ", i)
		}
		for k := range first[i].Trace {
			if first[i].Trace[k] != second[i].Trace[k] {
				t.Fatalf("run %d step %d differs", i, k)
			}
		}
	}
	if first[0].Trace[0].MeasuredPosition == first[1].Trace[0].MeasuredPosition {
		t.Error("different seeds gave identical noise")
	}
}
