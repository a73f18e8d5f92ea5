package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"seedfix/internal/driver"
	"seedfix/internal/ui"
)

type normalizeOutcome struct {
	run *driver.Run
	err error
}

// runNormalizeWithUI runs the driver in the background and renders its
// progress events until the run finishes. Leaving the view early (ctrl-c)
// cancels the run.
func runNormalizeWithUI(ctx context.Context, title string, files []string, opts driver.NormalizeOptions) (*driver.Run, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan normalizeOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		run, err := driver.NormalizePaths(ctx, files, opts)
		outcomeCh <- normalizeOutcome{run: run, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()

	var outcome normalizeOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// окно закрыто раньше драйвера: отменяем и дочитываем события
		cancel()
		go func() {
			for range events {
			}
		}()
		outcome = <-outcomeCh
	}
	if uiErr != nil {
		return outcome.run, uiErr
	}
	return outcome.run, outcome.err
}
