package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dynrec/internal/calibrate"
	"github.com/san-kum/dynrec/internal/config"
	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/pipeline"
)

// Run executes the pipeline in the background while showing its progress.
// Quitting the program cancels the run.
func Run(ctx context.Context, title string, s *dynamo.Series, cfg *config.Config, opts pipeline.Options) (*pipeline.Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(title, cfg.Calibration.TargetDensity, cfg.Calibration.Tolerance, cfg.Calibration.MaxIterations)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	observer := opts.Observer
	opts.Observer = func(r calibrate.Round) {
		if observer != nil {
			observer(r)
		}
		p.Send(RoundMsg(r))
	}

	done := make(chan DoneMsg, 1)
	go func() {
		res, err := pipeline.Run(ctx, s, cfg, opts)
		msg := DoneMsg{Result: res, Err: err}
		done <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		cancel()
		<-done
		return nil, fmt.Errorf("tui: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.Cancelled() {
		cancel()
	}
	msg := <-done
	return msg.Result, msg.Err
}
