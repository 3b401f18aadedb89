package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a character grid where every cell holds 2x4 braille dots.
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
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// DotsWide and DotsHigh give the canvas size in dots.
func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// DrawLine draws a line using Bresenham's algorithm
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

// Empty reports whether no dot is set.
func (c *Canvas) Empty() bool {
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				return false
			}
		}
	}
	return true
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		b.WriteString(string(row))
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Bounds is the data-space rectangle mapped onto a canvas.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

// BoundsOf returns the bounding box of the points (xs[k], ys[k]), padded so
// that neither side is empty.
func BoundsOf(xs, ys []float64) Bounds {
	n := min(len(xs), len(ys))
	if n == 0 {
		return Bounds{-1, 1, -1, 1}
	}
	b := Bounds{xs[0], xs[0], ys[0], ys[0]}
	for k := 1; k < n; k++ {
		b.XMin, b.XMax = math.Min(b.XMin, xs[k]), math.Max(b.XMax, xs[k])
		b.YMin, b.YMax = math.Min(b.YMin, ys[k]), math.Max(b.YMax, ys[k])
	}
	if b.XMax == b.XMin {
		b.XMin, b.XMax = b.XMin-1, b.XMax+1
	}
	if b.YMax == b.YMin {
		b.YMin, b.YMax = b.YMin-1, b.YMax+1
	}
	return b
}

// toDots maps a data point to dot coordinates, y growing downwards.
func (c *Canvas) toDots(b Bounds, x, y float64) (int, int) {
	w, h := float64(c.DotsWide()-1), float64(c.DotsHigh()-1)
	px := (x - b.XMin) / (b.XMax - b.XMin) * w
	py := (b.YMax - y) / (b.YMax - b.YMin) * h
	return int(math.Round(px)), int(math.Round(py))
}

// Axes draws the lines x = 0 and y = 0 where they fall inside b.
func (c *Canvas) Axes(b Bounds) {
	if b.XMin <= 0 && 0 <= b.XMax {
		x, _ := c.toDots(b, 0, 0)
		for y := 0; y < c.DotsHigh(); y += 2 {
			c.Set(x, y)
		}
	}
	if b.YMin <= 0 && 0 <= b.YMax {
		_, y := c.toDots(b, 0, 0)
		for x := 0; x < c.DotsWide(); x += 2 {
			c.Set(x, y)
		}
	}
}

// Plot draws the polyline through (xs[k], ys[k]) scaled to b. Non-finite
// points break the line.
func (c *Canvas) Plot(b Bounds, xs, ys []float64) {
	n := min(len(xs), len(ys))
	havePrev := false
	var px, py int
	for k := 0; k < n; k++ {
		if math.IsNaN(xs[k]) || math.IsNaN(ys[k]) || math.IsInf(xs[k], 0) || math.IsInf(ys[k], 0) {
			havePrev = false
			continue
		}
		x, y := c.toDots(b, xs[k], ys[k])
		if havePrev {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py, havePrev = x, y, true
	}
}

// PhasePlane renders the curve (xs, ys) of a two-variable system as braille
// text of the given size in characters, with dotted axes through the origin.
func PhasePlane(xs, ys []float64, width, height int) string {
	c := NewCanvas(width, height)
	b := BoundsOf(xs, ys)
	c.Axes(b)
	c.Plot(b, xs, ys)
	return c.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
