package viz

import (
	"github.com/san-kum/dynrec/internal/spectral"
)

// Portrait scatters ys against xs on a Braille canvas of width x height
// cells, with a tenth of the range as margin and the zero axes drawn where
// they fall inside the frame.
func Portrait(xs, ys []float64, width, height int) *Canvas {
	c := NewCanvas(width, height)
	n := min(len(xs), len(ys))
	if n == 0 || width == 0 || height == 0 {
		return c
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX, minY = minX-rangeX*0.1, minY-rangeY*0.1
	rangeX, rangeY = rangeX*1.2, rangeY*1.2

	dotsX, dotsY := 2*width, 4*height
	px := func(x float64) int { return int((x - minX) / rangeX * float64(dotsX-1)) }
	py := func(y float64) int { return dotsY - 1 - int((y-minY)/rangeY*float64(dotsY-1)) }

	if minX <= 0 && minX+rangeX >= 0 {
		for y := 0; y < dotsY; y += 2 {
			c.Set(px(0), y)
		}
	}
	if minY <= 0 && minY+rangeY >= 0 {
		for x := 0; x < dotsX; x += 2 {
			c.Set(x, py(0))
		}
	}
	for i := 0; i < n; i++ {
		c.Set(px(xs[i]), py(ys[i]))
	}
	return c
}

// EigenmapPortrait plots two spectral components against each other.
func EigenmapPortrait(coords *spectral.Coordinates, xk, yk, width, height int) *Canvas {
	if coords == nil || coords.Len() == 0 || xk < 0 || yk < 0 || xk >= spectral.Components || yk >= spectral.Components {
		return NewCanvas(width, height)
	}
	return Portrait(coords.Column(xk), coords.Column(yk), width, height)
}
