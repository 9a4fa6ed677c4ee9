// Package export renders analysis results as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dynrec/internal/bootstrap"
	"github.com/san-kum/dynrec/internal/detect"
	"github.com/san-kum/dynrec/internal/recurrence"
)

const (
	background  = "#0a0a0a"
	seriesColor = "#00ccff"
	bandColor   = "#ff4444"
	flagColor   = "#ffaa00"
)

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// RecurrenceSVG draws every recurrent pair of m as a square of side cell.
// Time runs left to right and bottom to top.
func RecurrenceSVG(m *recurrence.Matrix, cell float64) string {
	if m == nil || m.Size() == 0 {
		return ""
	}
	n := m.Size()
	side := float64(n) * cell

	var sb strings.Builder
	header(&sb, side, side)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	for i := 0; i < n; i++ {
		y := side - float64(i+1)*cell
		for j := 0; j < n; j++ {
			if m.At(i, j) {
				fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
					float64(j)*cell, y, cell, cell)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FisherSVG draws the series as a polyline over its time axis, the band as
// two horizontal lines and each flagged interval as a shaded column.
func FisherSVG(time, values []float64, band bootstrap.Band, flagged []detect.Interval, width, height int) string {
	n := min(len(time), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := time[0], time[0]
	minY, maxY := min(values[0], band.Lower), max(values[0], band.Upper)
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, time[i]), max(maxX, time[i])
		minY, maxY = min(minY, values[i]), max(maxY, values[i])
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	w, h := float64(width), float64(height)
	px := func(x float64) float64 { return (x - minX) / rangeX * w }
	py := func(y float64) float64 { return h - (y-minY)/rangeY*h }

	var sb strings.Builder
	header(&sb, w, h)

	for _, iv := range flagged {
		x0, x1 := px(iv.StartTime), px(iv.EndTime)
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="0" width="%.1f" height="%.0f" fill="%s" fill-opacity="0.25"/>`+"\n",
			x0-1, x1-x0+2, h, flagColor)
	}
	for _, y := range []float64{band.Lower, band.Upper} {
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%.0f" y2="%.1f" stroke="%s" stroke-dasharray="4 3"/>`+"\n",
			py(y), w, py(y), bandColor)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, seriesColor)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", px(time[i]), py(values[i]))
	}
	sb.WriteString(`"/>` + "\n</svg>")
	return sb.String()
}
