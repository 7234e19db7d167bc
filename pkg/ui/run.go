package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type RunOptions struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Run drives m until the user quits or ctx is cancelled. transcript is
// attached to the program before it starts so client turns reach the model.
func Run(ctx context.Context, m Model, transcript *ProgramTranscript, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var popts []tea.ProgramOption
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	m.ctx = ctx
	p := tea.NewProgram(m, popts...)
	transcript.Attach(p)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return errors.Wrap(err, "run terminal ui")
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}
