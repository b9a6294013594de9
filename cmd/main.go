package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := runner.app().Run(ctx, os.Args); err != nil {
		stop()
		logger.Error("startup failed", "kind", shared.KindOf(err), "error", err)
		os.Exit(1)
	}
	stop()
}

// app builds the root command. Without a subcommand it serves MCP on stdio.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "resonance",
		Usage:   "Serve Spotify search and playlists as MCP tools, backed by a local cache",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.configure,
		Action:   r.Serve,
		Commands: r.register(),
		Writer:   r.output,
	}
}
