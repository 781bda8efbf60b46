package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/motorsim/internal/config"
)

// Exit statuses.
const (
	exitOK       = 0
	exitError    = 1
	exitTimedOut = 2
)

var errTimedOut = errors.New("simulation did not converge within the step budget")

var (
	verbose bool
	logger  = zap.NewNop()

	configFile    string
	preset        string
	startPos      float64
	targetPos     float64
	controller    string
	integrator    string
	dt            float64
	maxSteps      int
	substeps      int
	voltageScale  float64
	seed          int64
	kp            float64
	ki            float64
	kd            float64
	fuzzyKi       float64
	ppr           int
	noiseStd      float64
	allowTimeout  bool
	plotDir       string
	csvOut        string
	jsonOut       string
	svgOut        string
	quiet         bool
	numRuns       int
	workers       int
	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepSteps    int
	trials        int
	perturbation  float64
	surfaceDeltas []float64
	showPhase     bool
	tuneGrid      []string
	tuneMetric    string
	tuneTop       int
	bundleDir     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "motorsim",
		Short:         "closed-loop DC motor position control: fuzzy vs PID",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging (progress every 20 steps)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one move and print the summary",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&allowTimeout, "allow-timeout", false, "exit 0 even when the run times out")
	runCmd.Flags().StringVar(&plotDir, "plot-dir", "", "write PNG figures into this directory")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "write the trace as CSV (- for stdout)")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write the run as JSON (- for stdout)")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write a position SVG")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip terminal plots")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "repeat with consecutive seeds and report the spread")
	runCmd.Flags().IntVar(&workers, "workers", 4, "parallel runs when --runs > 1")
	runCmd.Flags().StringVar(&bundleDir, "bundle", "", "write metadata.json and trace.csv into this directory")
	runCmd.Flags().BoolVar(&showPhase, "phase", false, "print the error phase portrait and oscillation figures")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run the fuzzy and PID controllers on the same move and seed",
		Args:  cobra.NoArgs,
		RunE:  compareControllers,
	}
	addSimFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and tabulate the outcome",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "Kp", "parameter name (controller parameter, or motor.J, motor.R, ...)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 5, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every entry of a YAML scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&allowTimeout, "allow-timeout", false, "exit 0 even when runs time out")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb start and target randomly and count convergence",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 30, "max perturbation of start and target (deg)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "parallel trials")

	fuzzyCmd := &cobra.Command{
		Use:   "fuzzy",
		Short: "show the fuzzy controller's membership functions, rules and surface",
		Args:  cobra.NoArgs,
		RunE:  showFuzzy,
	}
	fuzzyCmd.Flags().Float64SliceVar(&surfaceDeltas, "deltas", []float64{-5000, 0, 5000}, "delta-error values (deg/s) for surface slices")

	replayCmd := &cobra.Command{
		Use:   "replay [run.json | bundle-dir]",
		Short: "play a run back in the terminal",
		Long:  "Play back a run exported with `run --json` or `run --bundle`, or simulate one from the flags when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  replayRun,
	}
	addSimFlags(replayCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller gains offline for the lowest metric",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringSliceVar(&tuneGrid, "grid", []string{"Kp=1:4:4", "Kd=0.05:0.2:4"}, "name=min:max:n per parameter")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 10, "rows to print")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list the named moves accepted by --preset",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, compareCmd, sweepCmd, batchCmd, monteCarloCmd, fuzzyCmd, replayCmd, tuneCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errTimedOut):
		fmt.Fprintln(os.Stderr, err)
		return exitTimedOut
	case config.IsConfigurationError(err):
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitError
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func addSimFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use a named move (see presets)")
	f.Float64Var(&startPos, "start", 0, "start position (deg, -180..180)")
	f.Float64Var(&targetPos, "target", 0, "target position (deg, -180..180)")
	f.StringVar(&controller, "controller", defaults.Controller, "controller: fuzzy or pid")
	f.StringVar(&integrator, "integrator", defaults.Integrator, "integrator: euler or rk4")
	f.Float64Var(&dt, "dt", defaults.Dt, "control period (s)")
	f.IntVar(&maxSteps, "max-steps", defaults.MaxSteps, "step budget")
	f.IntVar(&substeps, "substeps", defaults.Substeps, "plant integration sub-steps per control step")
	f.Float64Var(&voltageScale, "voltage-scale", defaults.VoltageScale, "volts per unit of controller output")
	f.Int64Var(&seed, "seed", 0, "random seed (default: time-derived)")
	f.Float64Var(&kp, "kp", defaults.PID.Kp, "pid kp")
	f.Float64Var(&ki, "ki", defaults.PID.Ki, "pid ki")
	f.Float64Var(&kd, "kd", defaults.PID.Kd, "pid kd")
	f.Float64Var(&fuzzyKi, "fuzzy-ki", defaults.Fuzzy.Ki, "fuzzy integral gain")
	f.IntVar(&ppr, "ppr", defaults.Encoder.PPR, "encoder pulses per revolution")
	f.Float64Var(&noiseStd, "noise", defaults.Encoder.NoiseStd, "encoder noise std (deg)")
}

// buildConfig layers defaults, preset, config file and explicitly set flags,
// in that order, and validates the result.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("start") {
		cfg.StartPosition = startPos
	}
	if f.Changed("target") {
		cfg.TargetPosition = targetPos
	}
	if f.Changed("controller") {
		cfg.Controller = controller
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if f.Changed("voltage-scale") {
		cfg.VoltageScale = voltageScale
	}
	if f.Changed("seed") {
		s := seed
		cfg.Seed = &s
	}
	if f.Changed("kp") {
		cfg.PID.Kp = kp
	}
	if f.Changed("ki") {
		cfg.PID.Ki = ki
	}
	if f.Changed("kd") {
		cfg.PID.Kd = kd
	}
	if f.Changed("fuzzy-ki") {
		cfg.Fuzzy.Ki = fuzzyKi
	}
	if f.Changed("ppr") {
		cfg.Encoder.PPR = ppr
	}
	if f.Changed("noise") {
		cfg.Encoder.NoiseStd = noiseStd
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
