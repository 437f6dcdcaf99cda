package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shzx/internal/formatter"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/desertthunder/shzx/internal/ui"
)

const tuiLogPath = "./tmp/shzx-tui.log"

// runTUI drives one sync through the interactive terminal UI and prints the final report after it exits.
func (r *Runner) runTUI(ctx context.Context, opts tasks.ReconcileOptions, req tasks.SyncRequest) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	pipeline, err := r.newPipeline(opts)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, pipeline, req)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	m, ok := final.(*ui.Model)
	if !ok {
		return nil
	}
	if report := m.Report(); report != nil {
		if err := r.writeBytes(formatter.ReportToText(report)); err != nil {
			return err
		}
	}
	return m.Err()
}
