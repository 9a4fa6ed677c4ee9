package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynrec/internal/bootstrap"
)

// FisherChart plots values together with the band bounds as flat lines.
func FisherChart(values []float64, band bootstrap.Band, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		upper[i], lower[i] = band.Upper, band.Lower
	}

	return asciigraph.PlotMany([][]float64{values, upper, lower},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(caption),
	)
}

// MutualInformationChart plots the lagged mutual information curve and marks
// the chosen lag in the caption.
func MutualInformationChart(mi []float64, tau int, width, height int) string {
	if len(mi) == 0 {
		return ""
	}
	caption := "mutual information (bits) vs lag"
	if tau > 0 {
		caption = fmt.Sprintf("%s, first minimum at lag %d", caption, tau)
	}
	return asciigraph.Plot(mi,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// DensityChart plots the density reached after each calibration round.
func DensityChart(densities []float64, target float64, width, height int) string {
	if len(densities) == 0 {
		return ""
	}
	line := make([]float64, len(densities))
	for i := range line {
		line[i] = target
	}
	return asciigraph.PlotMany([][]float64{densities, line},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Green),
		asciigraph.Caption(fmt.Sprintf("density per round (target %.3f)", target)),
	)
}
