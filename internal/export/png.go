package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/motorsim/internal/dynamo"
)

const (
	figureWidth  = 8.0 // inches
	figureHeight = 6.0
	figureDPI    = 300
)

var (
	colorTrue     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorMeasured = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorTarget   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)

	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Padding = vg.Points(12)
	p.Y.Padding = vg.Points(12)

	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)

	p.X.Tick.Marker = limitedTicker(8, "%.3f")
	p.Y.Tick.Marker = limitedTicker(8, "%.1f")

	p.Add(plotter.NewGrid())
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.Color, width float64) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(width)
	line.LineStyle.Color = c
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

// WritePNG renders p at 300 DPI.
func WritePNG(w io.Writer, p *plot.Plot, widthIn, heightIn float64) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(figureDPI),
	)
	p.Draw(draw.New(c))

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

func savePlotPNG(p *plot.Plot, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WritePNG(bw, p, figureWidth, figureHeight); err != nil {
		return err
	}
	return bw.Flush()
}

// PositionPlot shows true and measured position against the target.
func PositionPlot(trace dynamo.Trace, target float64, title string) (*plot.Plot, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("plot data invalid")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "position (deg)"
	stylePlot(p)

	t := trace.Times()
	if err := addLine(p, "encoder", xys(t, trace.MeasuredPositions()), colorMeasured, 1); err != nil {
		return nil, err
	}
	if err := addLine(p, "actual", xys(t, trace.TruePositions()), colorTrue, 2); err != nil {
		return nil, err
	}
	targetPts := plotter.XYs{{X: t[0], Y: target}, {X: t[len(t)-1], Y: target}}
	if err := addLine(p, "target", targetPts, colorTarget, 1.5); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

func linePlot(title, xlabel, ylabel string, xs, ys []float64) (*plot.Plot, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("plot data invalid")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	stylePlot(p)
	if err := addLine(p, "", xys(xs, ys), colorTrue, 2); err != nil {
		return nil, err
	}
	return p, nil
}

// SavePlots writes position, error, control and control-vs-error figures
// into dir, prefixed with prefix.
func SavePlots(dir, prefix string, trace dynamo.Trace, target float64) ([]string, error) {
	type figure struct {
		name  string
		build func() (*plot.Plot, error)
	}
	t := trace.Times()
	figures := []figure{
		{"position.png", func() (*plot.Plot, error) {
			return PositionPlot(trace, target, "Motor position")
		}},
		{"error.png", func() (*plot.Plot, error) {
			return linePlot("Position error", "time (s)", "error (deg)", t, trace.Errors())
		}},
		{"control.png", func() (*plot.Plot, error) {
			return linePlot("Control signal", "time (s)", "u", t, trace.Controls())
		}},
		{"control_vs_error.png", func() (*plot.Plot, error) {
			return linePlot("Control vs error", "error (deg)", "u", trace.Errors(), trace.Controls())
		}},
	}

	written := make([]string, 0, len(figures))
	for _, f := range figures {
		p, err := f.build()
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, prefix+f.name)
		if err := savePlotPNG(p, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
