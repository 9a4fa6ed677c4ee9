// Package viz renders analysis results in the terminal.
//
//   - [FisherChart]: asciigraph line chart of a Fisher series with its band
//   - [RecurrencePlot]: Braille rendering of a recurrence matrix
//   - [Summary]: lipgloss panel with the run's parameters and findings
package viz
