package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/motorsim/internal/config"
	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
	"github.com/san-kum/motorsim/internal/export"
	"github.com/san-kum/motorsim/internal/storage"
	"github.com/san-kum/motorsim/internal/viz"
)

func showFuzzy(cmd *cobra.Command, args []string) error {
	inf := control.DefaultInference()

	for _, v := range []control.Variable{inf.Error, inf.Delta, inf.Output} {
		fmt.Println(viz.MembershipPlot(v, plotWidth, 6))
		fmt.Println()
	}

	fmt.Println("rules (error \\ delta):")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tN\tZ\tP")
	labels := []control.Label{control.Negative, control.Zero, control.Positive}
	for _, e := range labels {
		fmt.Fprintf(w, "%s", e)
		for _, d := range labels {
			fmt.Fprintf(w, "\t%s", inf.Rules[e][d])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.SurfaceSlice(inf, surfaceDeltas, plotWidth, plotHeight))
	fmt.Printf("delta slices (deg/s): %v\n", surfaceDeltas)
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	var (
		title   string
		trace   dynamo.Trace
		summary dynamo.Summary
	)

	if len(args) == 1 {
		data, err := loadRun(args[0])
		if err != nil {
			return err
		}
		title = fmt.Sprintf("%s (seed %d)", data.Controller, data.Seed)
		trace, summary = data.Trace, data.Summary
	} else {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		s := cfg.ResolveSeed()
		result, err := simulate(cmd.Context(), experiment.NewRegistry(), cfg, s)
		if err != nil {
			return err
		}
		title = fmt.Sprintf("%s (seed %d)", cfg.Controller, s)
		trace, summary = result.Trace, result.Summary
	}

	_, err := tea.NewProgram(viz.NewReplayModel(title, trace, summary), tea.WithContext(cmd.Context())).Run()
	return err
}

// loadRun reads either a bundle directory or a JSON export.
func loadRun(path string) (*export.RunExport, error) {
	if storage.IsBundle(path) {
		return storage.New(path).Load()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ReadJSON(f)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONTROLLER\tSTART\tTARGET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%s\n", name, p.Controller, p.Start, p.Target, p.Description)
	}
	return w.Flush()
}
