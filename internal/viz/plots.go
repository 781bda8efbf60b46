package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
)

// resample picks n evenly spaced values so long traces fit the plot width.
func resample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// PositionPlot draws the true shaft position against the target.
func PositionPlot(trace dynamo.Trace, target float64, width, height int) string {
	if len(trace) == 0 {
		return ""
	}
	pos := resample(trace.TruePositions(), width)
	return asciigraph.PlotMany(
		[][]float64{constant(target, len(pos)), pos},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.SeriesLegends("target", "position"),
		asciigraph.Caption("position (deg)"),
	)
}

func ErrorPlot(trace dynamo.Trace, width, height int) string {
	return seriesPlot(trace.Errors(), width, height, "error (deg)")
}

func ControlPlot(trace dynamo.Trace, width, height int) string {
	return seriesPlot(trace.Controls(), width, height, "control signal")
}

func seriesPlot(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(resample(values, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

// ComparePlot overlays the true position of several runs.
func ComparePlot(names []string, traces []dynamo.Trace, target float64, width, height int) string {
	series := make([][]float64, 0, len(traces)+1)
	longest := 0
	for _, tr := range traces {
		if len(tr) > longest {
			longest = len(tr)
		}
	}
	if longest == 0 {
		return ""
	}
	n := width
	if longest < n {
		n = longest
	}
	series = append(series, constant(target, n))
	for _, tr := range traces {
		pos := tr.TruePositions()
		// hold the final value so every run spans the same time axis
		for len(pos) < longest {
			pos = append(pos, pos[len(pos)-1])
		}
		series = append(series, resample(pos, n))
	}

	legends := append([]string{"target"}, names...)
	colors := []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow, asciigraph.Magenta}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(colors[:min(len(series), len(colors))]...),
		asciigraph.SeriesLegends(legends...),
	)
}

// MembershipPlot draws the N, Z and P sets of v across its universe.
func MembershipPlot(v control.Variable, width, height int) string {
	if width < 2 {
		width = 2
	}
	series := make([][]float64, len(v.Sets))
	for l := range v.Sets {
		series[l] = make([]float64, width)
	}
	for i := 0; i < width; i++ {
		x := v.Min + (v.Max-v.Min)*float64(i)/float64(width-1)
		mu := v.Fuzzify(x)
		for l := range mu {
			series[l][i] = mu[l]
		}
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Yellow, asciigraph.Green),
		asciigraph.SeriesLegends(control.Negative.String(), control.Zero.String(), control.Positive.String()),
		asciigraph.Caption(v.Name),
	)
}

// SurfaceSlice plots the inference output across the error universe for
// each fixed delta.
func SurfaceSlice(inf control.Inference, deltas []float64, width, height int) string {
	if width < 2 || len(deltas) == 0 {
		return ""
	}
	errs := make([]float64, width)
	for i := range errs {
		errs[i] = inf.Error.Min + (inf.Error.Max-inf.Error.Min)*float64(i)/float64(width-1)
	}

	series := make([][]float64, len(deltas))
	for j, de := range deltas {
		series[j] = make([]float64, width)
		for i, e := range errs {
			series[j][i] = inf.Evaluate(e, de)
		}
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption("fuzzy output vs error"),
	)
}
