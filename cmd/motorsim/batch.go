package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/motorsim/internal/automation"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
)

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	if scenario.Base != nil {
		if err := scenario.Base.Validate(); err != nil {
			return err
		}
	}

	fmt.Printf("scenario %s: %s\n\n", scenario.Name, scenario.Description)
	reports, err := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCONTROLLER\tMOVE\tSEED\tOUTCOME\tSTEPS\tFINAL ERROR\tIAE")
	timedOut := 0
	for _, r := range reports {
		s := r.Result.Summary
		if s.Outcome == dynamo.TimedOut {
			timedOut++
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f→%.1f\t%d\t%s\t%d\t%.3f\t%.3f\n",
			r.Name, r.Config.Controller, s.StartPosition, s.TargetPosition, r.Seed,
			s.Outcome, s.StepsTaken, s.FinalError, r.Result.Metrics["iae"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	if timedOut > 0 && !allowTimeout {
		return fmt.Errorf("%w (%d of %d runs)", errTimedOut, timedOut, len(reports))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Seed:      cfg.ResolveSeed(),
	}

	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over [%g, %g] for %s, %.1f° → %.1f°, seed %d\n\n",
		sweepParam, sweepMin, sweepMax, cfg.Controller, cfg.StartPosition, cfg.TargetPosition, sweep.Seed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tOUTCOME\tSTEPS\tFINAL ERROR\tOVERSHOOT\tIAE\tEFFORT\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.2f\n",
			r.ParamValue, r.Outcome, r.StepsTaken, r.FinalError,
			r.Metrics["overshoot"], r.Metrics["iae"], r.Metrics["control_effort"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	mc := &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         cfg.ResolveSeed(),
		Workers:      workers,
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), mc, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	converged, timedOut := automation.MonteCarloStats(results)
	fmt.Printf("%s, %.1f° → %.1f° ± %.1f°, %d trials from seed %d\n", cfg.Controller,
		cfg.StartPosition, cfg.TargetPosition, perturbation, len(results), mc.Seed)
	fmt.Printf("converged: %d\ntimed out: %d\n", converged, timedOut)
	return nil
}
