package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille characters, each holding 2x4 sub-pixels.
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

// Pixels is the canvas size in sub-pixels.
func (c *Canvas) Pixels() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return row, col, col < c.Width && row < c.Height
}

// Set lights the sub-pixel (x, y), origin top left.
func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, ok := c.cell(x, y)
	if !ok {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Merge lights every sub-pixel lit in o. Both canvases must have the same
// size.
func (c *Canvas) Merge(o *Canvas) {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] |= o.Grid[i][j]
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

// Layers renders top over base, each cell styled by the topmost layer
// with a lit sub-pixel. Cells shared by both layers show the dots of both.
// base may be nil. Both canvases must have the same size.
func Layers(base, top *Canvas, baseStyle, topStyle lipgloss.Style) string {
	var b strings.Builder
	for i, row := range top.Grid {
		var run []rune
		layer := -1
		flush := func() {
			switch layer {
			case 0:
				b.WriteString(baseStyle.Render(string(run)))
			case 1:
				b.WriteString(topStyle.Render(string(run)))
			default:
				b.WriteString(string(run))
			}
			run = run[:0]
		}
		for j, r := range row {
			l := -1
			if base != nil && base.Grid[i][j] != brailleBlank {
				r |= base.Grid[i][j]
				l = 0
			}
			if row[j] != brailleBlank {
				l = 1
			}
			if l != layer && len(run) > 0 {
				flush()
			}
			layer = l
			run = append(run, r)
		}
		flush()
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Basin is the grid the map is drawn over.
type Basin interface {
	IsInWater(x, y float64) bool
}

// Projection maps grid coordinates onto canvas sub-pixels, north up.
type Projection struct {
	Nx, Ny int
	W, H   int
}

func (p Projection) ToPixel(x, y float64) (int, int) {
	px := int(x / float64(p.Nx-1) * float64(p.W-1))
	py := p.H - 1 - int(y/float64(p.Ny-1)*float64(p.H-1))
	return px, py
}

func (p Projection) ToGrid(px, py int) (float64, float64) {
	x := float64(px) / float64(p.W-1) * float64(p.Nx-1)
	y := float64(p.H-1-py) / float64(p.H-1) * float64(p.Ny-1)
	return x, y
}

// Coastline draws the sub-pixels where water meets land or the grid edge.
func Coastline(b Basin, proj Projection) *Canvas {
	c := NewCanvas((proj.W+1)/2, (proj.H+3)/4)
	wet := func(px, py int) bool {
		if px < 0 || py < 0 || px >= proj.W || py >= proj.H {
			return false
		}
		return b.IsInWater(proj.ToGrid(px, py))
	}
	for py := 0; py < proj.H; py++ {
		for px := 0; px < proj.W; px++ {
			if !wet(px, py) {
				continue
			}
			if !wet(px-1, py) || !wet(px+1, py) || !wet(px, py-1) || !wet(px, py+1) {
				c.Set(px, py)
			}
		}
	}
	return c
}
