package automation

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/motorsim/internal/config"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
)

const batchYAML = `
name: smoke
description: two moves and a hold
base:
  seed: 5
  max_steps: 300
runs:
  - name: quarter
    start_position: -90
    target_position: 45
  - name: hold
    preset: hold
  - name: short
    start_position: 0
    target_position: 90
    max_steps: 10
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(batchYAML))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "smoke" || len(s.Runs) != 3 {
		t.Fatalf("scenario = %+v", s)
	}
	if s.Base.Seed == nil || *s.Base.Seed != 5 {
		t.Errorf("base seed = %v", s.Base.Seed)
	}
	if s.Base.Dt != 0.001 || s.Base.Controller != "pid" {
		t.Errorf("base defaults lost: dt=%v controller=%s", s.Base.Dt, s.Base.Controller)
	}
}

func TestParseScenarioEmpty(t *testing.T) {
	if _, err := ParseScenario([]byte("name: empty\n")); err == nil {
		t.Error("expected error for scenario without runs")
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(batchYAML), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Runs) != 3 {
		t.Errorf("runs = %d", len(s.Runs))
	}
}

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(batchYAML))
	if err != nil {
		t.Fatal(err)
	}
	reports, err := RunScenario(context.Background(), s, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 {
		t.Fatalf("reports = %d", len(reports))
	}

	if reports[0].Name != "quarter" || !reports[0].Result.Summary.Converged {
		t.Errorf("quarter: %+v", reports[0].Result.Summary)
	}
	if reports[1].Config.StartPosition != 0 || !reports[1].Result.Summary.Converged {
		t.Errorf("hold: %+v", reports[1].Result.Summary)
	}
	if reports[2].Result.Summary.Outcome != dynamo.TimedOut {
		t.Errorf("short: outcome %v", reports[2].Result.Summary.Outcome)
	}
	for _, r := range reports {
		if r.Seed != 5 {
			t.Errorf("%s: seed %d", r.Name, r.Seed)
		}
	}
}

func TestRunScenarioInvalidRun(t *testing.T) {
	bad := 200.0
	s := &Scenario{
		Name: "bad",
		Runs: []ScenarioRun{{Name: "too far", Target: &bad}},
	}
	_, err := RunScenario(context.Background(), s, experiment.NewRegistry(), nil)
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestResolveUnknownPreset(t *testing.T) {
	if _, err := (ScenarioRun{Preset: "moonwalk"}).Resolve(config.DefaultConfig()); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("quarter-turn")
	sweep := &ParameterSweep{
		Base:      base,
		ParamName: "Kp",
		ParamMin:  1,
		ParamMax:  3,
		NumSteps:  3,
		Seed:      1,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3}
	for i, r := range results {
		if r.ParamValue != want[i] {
			t.Errorf("point %d: value %v, want %v", i, r.ParamValue, want[i])
		}
		if r.Metrics == nil {
			t.Errorf("point %d: no metrics", i)
		}
	}
}

func TestRunSweepMotorParam(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      config.GetPreset("quarter-turn"),
		ParamName: "motor.R",
		ParamMin:  3,
		ParamMax:  5,
		NumSteps:  2,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}

	sweep.ParamName = "motor.X"
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), nil); err == nil {
		t.Error("expected error for unknown motor parameter")
	}
}

func TestRunSweepTooFewSteps(t *testing.T) {
	sweep := &ParameterSweep{ParamName: "Kp", NumSteps: 1}
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), nil); err == nil {
		t.Error("expected error")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Base:         config.GetPreset("quarter-turn"),
		Perturbation: 20,
		NumTrials:    6,
		Seed:         10,
		Workers:      3,
	}
	reg := experiment.NewRegistry()

	first, err := RunMonteCarlo(context.Background(), mc, reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := RunMonteCarlo(context.Background(), mc, reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 6 {
		t.Fatalf("trials = %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("trial %d not reproducible: %+v vs %+v", i, first[i], second[i])
		}
		if first[i].Seed != 10+int64(i) {
			t.Errorf("trial %d seed %d", i, first[i].Seed)
		}
		if first[i].Start < -110.001 || first[i].Start > -69.999 {
			t.Errorf("trial %d start %v outside perturbation", i, first[i].Start)
		}
	}

	converged, timedOut := MonteCarloStats(first)
	if converged+timedOut != len(first) {
		t.Errorf("stats %d+%d != %d", converged, timedOut, len(first))
	}
}

func TestPerturbClamps(t *testing.T) {
	mc := &MonteCarloConfig{Base: config.GetPreset("half-turn"), Perturbation: 50, NumTrials: 4, Seed: 3}
	mc.Base.MaxSteps = 5
	results, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Target > 180+1e-9 || r.Target < 130-1e-9 {
			t.Errorf("target %v outside clamped range", r.Target)
		}
	}
}

func TestPerturbSourceIndependentOfNoiseStream(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		noise := rand.New(rand.NewSource(seed))
		p := perturbSource(seed)
		if p.Float64() == noise.Float64() {
			t.Errorf("seed %d: perturbation and noise streams start identically", seed)
		}
		if perturbSource(seed).Float64() != perturbSource(seed).Float64() {
			t.Errorf("seed %d: perturbation stream not reproducible", seed)
		}
	}
}
