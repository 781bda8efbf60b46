package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/motorsim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Series is one polyline in an SVG figure.
type Series struct {
	Points []Point
	Stroke string
}

// TraceToSVG draws true position, measured position and the target over time.
func TraceToSVG(trace dynamo.Trace, target float64, width, height int) string {
	if len(trace) < 2 {
		return ""
	}
	truePts := make([]Point, len(trace))
	measPts := make([]Point, len(trace))
	for i, r := range trace {
		truePts[i] = Point{r.Time, r.TruePosition}
		measPts[i] = Point{r.Time, r.MeasuredPosition}
	}
	last := trace[len(trace)-1].Time
	targetPts := []Point{{trace[0].Time, target}, {last, target}}

	return SeriesToSVG([]Series{
		{Points: targetPts, Stroke: "#ff5555"},
		{Points: measPts, Stroke: "#888888"},
		{Points: truePts, Stroke: "#00ff00"},
	}, width, height)
}

// SeriesToSVG scales all series into one shared frame with 10% padding.
func SeriesToSVG(series []Series, width, height int) string {
	first := true
	var minX, maxX, minY, maxY float64
	for _, s := range series {
		for _, p := range s.Points {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
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
	}
	if first {
		return ""
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

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Stroke))
		for i, p := range s.Points {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
