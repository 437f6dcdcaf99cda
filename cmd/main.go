package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/shzx/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("application error", "kind", shared.Classify(err), "error", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "shzx",
		Usage:   "Reconcile Shazam recognition history into a YouTube Music playlist",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Writer:   runner.output,
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}
}

// exitCode maps an error class to a process exit status.
func exitCode(err error) int {
	switch shared.Classify(err) {
	case shared.KindInput:
		return 2
	case shared.KindStore:
		return 3
	case shared.KindRemote:
		return 4
	default:
		return 1
	}
}
