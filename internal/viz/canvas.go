package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
// starting at U+2800.
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in sub-pixels: (Width*2) x (Height*4).
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

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps a world-space rectangle (horizontal u, vertical v, both in
// meters) onto a canvas, with v pointing up.
type Viewport struct {
	Canvas     *Canvas
	MinU, MaxU float64
	MinV, MaxV float64
}

// Fit returns a viewport centered on (cu, cv) spanning at least span meters
// on its shorter side, corrected for the 1:2 braille cell aspect.
func Fit(c *Canvas, cu, cv, span float64) Viewport {
	pw, ph := float64(c.Width*2), float64(c.Height*4)
	su, sv := span, span
	if pw > ph {
		su = span * pw / ph
	} else {
		sv = span * ph / pw
	}
	return Viewport{Canvas: c, MinU: cu - su/2, MaxU: cu + su/2, MinV: cv - sv/2, MaxV: cv + sv/2}
}

// ToPixel converts world coordinates to sub-pixels. ok is false for
// non-finite input.
func (v Viewport) ToPixel(u, w float64) (x, y int, ok bool) {
	if math.IsNaN(u) || math.IsNaN(w) || math.IsInf(u, 0) || math.IsInf(w, 0) {
		return 0, 0, false
	}
	pw, ph := float64(v.Canvas.Width*2-1), float64(v.Canvas.Height*4-1)
	fx := (u - v.MinU) / (v.MaxU - v.MinU) * pw
	fy := (v.MaxV - w) / (v.MaxV - v.MinV) * ph
	return int(math.Round(fx)), int(math.Round(fy)), true
}

func (v Viewport) Point(u, w float64) {
	if x, y, ok := v.ToPixel(u, w); ok {
		v.Canvas.Set(x, y)
	}
}

func (v Viewport) Line(u0, w0, u1, w1 float64) {
	x0, y0, ok0 := v.ToPixel(u0, w0)
	x1, y1, ok1 := v.ToPixel(u1, w1)
	if !ok0 || !ok1 {
		return
	}
	// keep Bresenham bounded when a point is far off screen
	lim := 4 * (v.Canvas.Width*2 + v.Canvas.Height*4)
	if absInt(x0) > lim || absInt(x1) > lim || absInt(y0) > lim || absInt(y1) > lim {
		return
	}
	v.Canvas.DrawLine(x0, y0, x1, y1)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
