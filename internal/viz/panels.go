package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/motorsim/internal/dynamo"
)

func OutcomeBadge(o dynamo.Outcome) string {
	label := strings.ToUpper(strings.ReplaceAll(o.String(), "_", " "))
	switch o {
	case dynamo.Converged:
		return StatusConverged.Render(label)
	case dynamo.TimedOut:
		return StatusTimedOut.Render(label)
	case dynamo.Failed:
		return StatusFailed.Render(label)
	default:
		return Subtle.Render(label)
	}
}

func row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// SummaryPanel renders the end-of-run summary and metrics in a box.
func SummaryPanel(title string, s dynamo.Summary, metrics map[string]float64) string {
	lines := []string{
		Title.Render(title) + "  " + OutcomeBadge(s.Outcome),
		"",
		row("initial position", fmt.Sprintf("%.2f°", s.StartPosition)),
		row("target position", fmt.Sprintf("%.2f°", s.TargetPosition)),
		row("final position", fmt.Sprintf("%.3f°", s.FinalTruePosition)),
		row("encoder reading", fmt.Sprintf("%.3f°", s.FinalMeasuredPosition)),
		row("final error", fmt.Sprintf("%.3f°", s.FinalError)),
		row("steps", fmt.Sprintf("%d", s.StepsTaken)),
	}

	if len(metrics) > 0 {
		lines = append(lines, "")
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, row(name, fmt.Sprintf("%.4g", metrics[name])))
		}
	}

	return Panel.Render(strings.Join(lines, "\n"))
}

// ComparePanels lays summary panels out side by side.
func ComparePanels(titles []string, results []*dynamo.Result) string {
	panels := make([]string, 0, len(results))
	for i, r := range results {
		panels = append(panels, SummaryPanel(titles[i], r.Summary, r.Metrics))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}
