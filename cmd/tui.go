package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/repositories"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/desertthunder/resonance/internal/ui"
)

// CacheBrowse launches the interactive cache browser.
func (r *Runner) CacheBrowse(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(filepath.Join(r.config.Data.Dir, "resonance-tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	previous := r.logger
	r.SetLogger(fileLogger)
	defer func() {
		r.SetLogger(previous)
		if err := logFile.Close(); err != nil {
			previous.Warn("failed to close TUI log file", "error", err)
		}
	}()

	return r.withCache(func(cache *repositories.Cache) error {
		p := tea.NewProgram(ui.NewModel(ctx, cache), tea.WithContext(ctx), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}
