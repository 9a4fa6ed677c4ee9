// Package tui shows the progress of a pipeline run in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynrec/internal/calibrate"
	"github.com/san-kum/dynrec/internal/pipeline"
	"github.com/san-kum/dynrec/internal/viz"
)

// RoundMsg reports one finished calibration round.
type RoundMsg calibrate.Round

// DoneMsg carries the outcome of the run.
type DoneMsg struct {
	Result *pipeline.Result
	Err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
)

const barWidth = 40

// Model follows the radius search and then shows the run summary.
type Model struct {
	title     string
	target    float64
	tolerance float64
	maxIter   int

	rounds  []calibrate.Round
	frame   int
	started time.Time
	elapsed time.Duration

	result   *pipeline.Result
	err      error
	done     bool
	quitting bool
}

func NewModel(title string, target, tolerance float64, maxIter int) Model {
	return Model{
		title:     title,
		target:    target,
		tolerance: tolerance,
		maxIter:   maxIter,
		started:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case RoundMsg:
		m.rounds = append(m.rounds, calibrate.Round(msg))
	case DoneMsg:
		m.result, m.err, m.done = msg.Result, msg.Err, true
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	case tickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

// Rounds returns the calibration rounds seen so far.
func (m Model) Rounds() []calibrate.Round {
	return m.rounds
}

func (m Model) Result() (*pipeline.Result, error) {
	return m.result, m.err
}

// Cancelled reports whether the user quit before the run finished.
func (m Model) Cancelled() bool {
	return m.quitting && !m.done
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title) + "\n\n")

	if m.done {
		switch {
		case m.err != nil:
			b.WriteString(viz.StatusError.Render("failed: "+m.err.Error()) + "\n")
		case m.result != nil:
			b.WriteString(viz.StatusOK.Render(fmt.Sprintf("done in %s", m.elapsed.Round(time.Millisecond))) + "\n")
		}
		return b.String()
	}

	var lines []string
	if len(m.rounds) == 0 {
		lines = append(lines, viz.Spinner(m.frame)+" preparing")
	} else {
		last := m.rounds[len(m.rounds)-1]
		lines = append(lines,
			fmt.Sprintf("%s round %d", viz.Spinner(m.frame), last.Iteration),
			viz.MetricLabel.Render("epsilon  ")+viz.MetricValue.Render(fmt.Sprintf("%.5g", last.Epsilon)),
			viz.MetricLabel.Render("density  ")+viz.MetricValue.Render(fmt.Sprintf("%.4f", last.Density))+
				viz.Subtle.Render(fmt.Sprintf("  target %.4f ± %.4f", m.target, m.tolerance)),
			viz.ProgressBar(m.closeness(last.Density), barWidth),
			viz.Sparkline(m.densities(), barWidth),
		)
		if m.maxIter > 0 {
			lines = append(lines, viz.Subtle.Render(fmt.Sprintf("%d / %d rounds", len(m.rounds), m.maxIter)))
		}
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")) + "\n")
	b.WriteString(viz.KeyHint.Render("q quit") + "\n")
	return b.String()
}

func (m Model) densities() []float64 {
	d := make([]float64, len(m.rounds))
	for i, r := range m.rounds {
		d[i] = r.Density
	}
	return d
}

// closeness maps the distance to the target onto [0, 1]; 1 means within
// tolerance.
func (m Model) closeness(density float64) float64 {
	miss := math.Abs(density - m.target)
	if miss <= m.tolerance {
		return 1
	}
	return math.Max(0, 1-(miss-m.tolerance)/math.Max(m.target, 1-m.target))
}
