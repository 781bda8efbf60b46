package viz

import (
	"math"
	"strings"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBase = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in Braille sub-pixels, (Width*2) x
// (Height*4) dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine is Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// center and radius of the largest dial that fits, in dots.
func (c *Canvas) dial() (cx, cy, r float64) {
	w, h := float64(c.Width*2), float64(c.Height*4)
	return w / 2, h / 2, math.Min(w, h)/2 - 1
}

// dialPoint maps an angle (degrees, 0 pointing right, counter-clockwise
// positive) and a fraction of the dial radius to dot coordinates.
func (c *Canvas) dialPoint(angleDeg, frac float64) (int, int) {
	cx, cy, r := c.dial()
	a := angleDeg * math.Pi / 180
	return int(math.Round(cx + frac*r*math.Cos(a))), int(math.Round(cy - frac*r*math.Sin(a)))
}

// DrawDial draws the shaft as a spoke from the centre at position and a
// short tick on the rim at target.
func (c *Canvas) DrawDial(position, target float64) {
	for deg := 0; deg < 360; deg += 6 {
		x, y := c.dialPoint(float64(deg), 1)
		c.Set(x, y)
	}
	cx, cy, _ := c.dial()
	x, y := c.dialPoint(position, 0.9)
	c.DrawLine(int(cx), int(cy), x, y)

	x0, y0 := c.dialPoint(target, 0.75)
	x1, y1 := c.dialPoint(target, 1)
	c.DrawLine(x0, y0, x1, y1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
