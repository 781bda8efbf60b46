package analysis

import (
	"strings"

	"github.com/san-kum/motorsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is a trajectory projected onto two quantities.
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// ErrorPhasePortrait plots error (deg) against its rate (deg/s), the two
// inputs the fuzzy rule table is written over. The initial record has no
// rate and is skipped.
func ErrorPhasePortrait(trace dynamo.Trace) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: "error (deg)",
		YLabel: "error rate (deg/s)",
		Points: make([]Point, 0, len(trace)),
	}
	for _, r := range trace {
		if r.Step == 0 {
			continue
		}
		portrait.Points = append(portrait.Points, Point{X: r.Error, Y: r.DeltaError})
	}
	return portrait
}

// StatePhasePortrait plots true position (deg) against velocity (deg/s).
func StatePhasePortrait(trace dynamo.Trace) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: "position (deg)",
		YLabel: "velocity (deg/s)",
		Points: make([]Point, len(trace)),
	}
	for i, r := range trace {
		portrait.Points[i] = Point{X: r.TruePosition, Y: r.Velocity}
	}
	return portrait
}

// ZeroCrossings counts sign changes of the error after the first step.
func ZeroCrossings(trace dynamo.Trace) int {
	n := 0
	prev := 0.0
	for _, r := range trace {
		if r.Step == 0 {
			continue
		}
		if (prev < 0 && r.Error > 0) || (prev > 0 && r.Error < 0) {
			n++
		}
		if r.Error != 0 {
			prev = r.Error
		}
	}
	return n
}

// PhasePortraitToASCII scatters the portrait on a width x height grid and
// draws the axes where they are in view.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(portrait.YLabel + " vs " + portrait.XLabel + "\n")
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
