package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/motorsim/internal/analysis"
	"github.com/san-kum/motorsim/internal/config"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
	"github.com/san-kum/motorsim/internal/export"
	"github.com/san-kum/motorsim/internal/sim"
	"github.com/san-kum/motorsim/internal/storage"
	"github.com/san-kum/motorsim/internal/viz"
)

const (
	plotWidth  = 70
	plotHeight = 12
)

// simulate runs cfg once with the given seed and the standard metrics.
func simulate(ctx context.Context, registry *experiment.Registry, cfg *config.Config, seed int64) (*dynamo.Result, error) {
	ec := cfg.Experiment(seed)
	exp := experiment.New(ec)
	metrics := registry.DefaultMetrics(ec.Start, ec.Target, ec.Sim)
	if err := exp.Setup(registry, metrics, sim.WithLogger(logger.With(zap.String("controller", cfg.Controller)))); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	seed := cfg.ResolveSeed()
	registry := experiment.NewRegistry()

	if numRuns > 1 {
		return runEnsemble(cmd.Context(), registry, cfg, seed)
	}

	started := time.Now()
	result, err := simulate(cmd.Context(), registry, cfg, seed)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logger.Debug("run complete", zap.Duration("elapsed", time.Since(started)))

	toStdout := csvOut == "-" || jsonOut == "-"
	if !toStdout {
		fmt.Println(viz.SummaryPanel(fmt.Sprintf("%s (seed %d)", cfg.Controller, seed), result.Summary, result.Metrics))
		if !quiet {
			fmt.Println(viz.PositionPlot(result.Trace, cfg.TargetPosition, plotWidth, plotHeight))
			fmt.Println()
			fmt.Println(viz.ControlPlot(result.Trace, plotWidth, plotHeight/2))
		}
		if showPhase {
			printOscillation(result.Trace, cfg.Dt)
		}
	}

	if err := writeOutputs(cfg, seed, result); err != nil {
		return err
	}

	if !result.Summary.Converged && !allowTimeout {
		return fmt.Errorf("%w (%d steps, final error %.3f°)", errTimedOut, result.Summary.StepsTaken, result.Summary.FinalError)
	}
	return nil
}

func writeOutputs(cfg *config.Config, seed int64, result *dynamo.Result) error {
	if csvOut != "" {
		if err := withOutput(csvOut, func(w io.Writer) error {
			return export.WriteCSV(w, result.Trace)
		}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if jsonOut != "" {
		data := export.NewRunExport(cfg.Controller, cfg.Integrator, seed, cfg.SimConfig(), result)
		if err := withOutput(jsonOut, func(w io.Writer) error {
			return export.WriteJSON(w, data)
		}); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if svgOut != "" {
		svg := export.TraceToSVG(result.Trace, cfg.TargetPosition, 800, 400)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	if bundleDir != "" {
		data := export.NewRunExport(cfg.Controller, cfg.Integrator, seed, cfg.SimConfig(), result)
		if err := storage.New(bundleDir).Save(data); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		logger.Info("wrote bundle", zap.String("dir", bundleDir))
	}
	if plotDir != "" {
		files, err := export.SavePlots(plotDir, cfg.Controller+"_", result.Trace, cfg.TargetPosition)
		if err != nil {
			return fmt.Errorf("save plots: %w", err)
		}
		for _, f := range files {
			logger.Info("wrote figure", zap.String("path", f))
		}
	}
	return nil
}

func printOscillation(trace dynamo.Trace, dt float64) {
	fmt.Printf("error sign changes: %d\n", analysis.ZeroCrossings(trace))
	fmt.Printf("dominant control frequency: %.2f Hz\n\n", analysis.DominantFrequency(trace.Controls(), dt))
	fmt.Println(analysis.PhasePortraitToASCII(analysis.ErrorPhasePortrait(trace), plotWidth, plotHeight))
}

func withOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

func runEnsemble(ctx context.Context, registry *experiment.Registry, cfg *config.Config, seedStart int64) error {
	ensemble := dynamo.NewEnsemble(experiment.RunFunc(registry, cfg.Experiment(seedStart), sim.WithLogger(logger)), numRuns, seedStart)
	ensemble.SetWorkers(workers)

	results, err := ensemble.Run(ctx)
	if err != nil {
		return fmt.Errorf("ensemble failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tOUTCOME\tSTEPS\tFINAL ERROR\tOVERSHOOT")

	steps := make([]float64, 0, len(results))
	finalErrs := make([]float64, 0, len(results))
	converged := 0
	for i, r := range results {
		s := r.Summary
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\t%.3f\n", seedStart+int64(i), s.Outcome, s.StepsTaken, s.FinalError, r.Metrics["overshoot"])
		if s.Converged {
			converged++
			steps = append(steps, float64(s.StepsTaken))
		}
		finalErrs = append(finalErrs, s.FinalError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nconverged: %d/%d\n", converged, len(results))
	if len(steps) > 1 {
		mean, std := stat.MeanStdDev(steps, nil)
		fmt.Printf("steps to converge: %.1f ± %.1f\n", mean, std)
	}
	if len(finalErrs) > 1 {
		mean, std := stat.MeanStdDev(finalErrs, nil)
		fmt.Printf("final error: %.3f ± %.3f°\n", mean, std)
	}

	if converged < len(results) && !allowTimeout {
		return fmt.Errorf("%w (%d of %d runs)", errTimedOut, len(results)-converged, len(results))
	}
	return nil
}

func compareControllers(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	seed := cfg.ResolveSeed()
	registry := experiment.NewRegistry()

	names := registry.ListControllers()
	results := make([]*dynamo.Result, 0, len(names))
	traces := make([]dynamo.Trace, 0, len(names))
	for _, name := range names {
		c := cfg.Clone()
		c.Controller = name
		result, err := simulate(cmd.Context(), registry, c, seed)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, result)
		traces = append(traces, result.Trace)
	}

	fmt.Printf("%.1f° → %.1f°, seed %d\n\n", cfg.StartPosition, cfg.TargetPosition, seed)
	fmt.Println(viz.ComparePanels(names, results))
	fmt.Println(viz.ComparePlot(names, traces, cfg.TargetPosition, plotWidth, plotHeight))
	fmt.Println(strings.Repeat("─", plotWidth))
	return nil
}
