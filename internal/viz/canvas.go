package viz

import (
	"strings"

	"github.com/san-kum/dynrec/internal/recurrence"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille dot grid of Width x Height cells, i.e. 2*Width by
// 4*Height dots.
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
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set turns on the dot at (x, y). Out-of-range dots are ignored.
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// RecurrencePlot draws m on a canvas at most width cells wide. Time runs left
// to right and bottom to top; a dot is set when any entry of the block it
// covers is recurrent.
func RecurrencePlot(m *recurrence.Matrix, width int) *Canvas {
	n := m.Size()
	dots := min(n, 2*width)
	if dots == 0 {
		return NewCanvas(0, 0)
	}
	c := NewCanvas((dots+1)/2, (dots+3)/4)

	for i := 0; i < n; i++ {
		y := dots - 1 - i*dots/n
		for j := 0; j < n; j++ {
			if m.At(i, j) {
				c.Set(j*dots/n, y)
			}
		}
	}
	return c
}
