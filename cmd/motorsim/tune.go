package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/motorsim/internal/experiment"
	"github.com/san-kum/motorsim/internal/optim"
	"github.com/san-kum/motorsim/internal/sim"
)

// parseGrid turns "Kp=1:4:4" entries into parallel name and value slices.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, s := range specs {
		name, rng, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("grid entry %q: want name=min:max:n", s)
		}
		parts := strings.Split(rng, ":")
		if len(parts) != 3 {
			return nil, nil, fmt.Errorf("grid entry %q: want name=min:max:n", s)
		}
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("grid entry %q: %w", s, err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("grid entry %q: %w", s, err)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return nil, nil, fmt.Errorf("grid entry %q: bad count", s)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return names, ranges, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(tuneGrid)
	if err != nil {
		return err
	}
	seed := cfg.ResolveSeed()
	registry := experiment.NewRegistry()
	base := cfg.Experiment(seed)

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		ec := base
		ec.Params = make(map[string]float64, len(base.Params)+len(params))
		for k, v := range base.Params {
			ec.Params[k] = v
		}
		for k, v := range params {
			ec.Params[k] = v
		}
		exp := experiment.New(ec)
		if err := exp.Setup(registry, registry.DefaultMetrics(ec.Start, ec.Target, ec.Sim), sim.WithLogger(logger)); err != nil {
			return nil, err
		}
		return exp, nil
	}

	best, all, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), build, tuneMetric)
	if err != nil {
		return fmt.Errorf("tune failed: %w", err)
	}
	logger.Info("grid searched", zap.Int("candidates", len(all)), zap.String("metric", tuneMetric))

	shown := all
	if len(shown) > tuneTop {
		shown = shown[:tuneTop]
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\tOUTCOME\t%s\n", strings.ToUpper(tuneMetric))
	for _, c := range shown {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", formatParams(c.Params), c.Outcome, c.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest for %s (seed %d): %s\n", cfg.Controller, seed, formatParams(best.Params))
	return nil
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4g", k, p[k])
	}
	return strings.Join(parts, " ")
}
