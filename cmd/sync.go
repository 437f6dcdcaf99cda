package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shzx/internal/formatter"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync reads a history store and adds every song not already present to the destination playlist.
//
// The report is printed even when the append fails, so the caller can see what was attempted.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.reconcileOptions(cmd)
	if err != nil {
		return err
	}

	storePath, cleanup, err := r.storePath(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, err := r.newCatalog(ctx, cmd.String("auth"))
	if err != nil {
		return err
	}

	req := tasks.SyncRequest{
		StorePath:     storePath,
		Catalog:       catalog,
		PlaylistTitle: cmd.String("playlist"),
	}

	if cmd.Bool("tui") {
		return r.runTUI(ctx, opts, req)
	}

	pipeline, err := r.newPipeline(opts)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.SearchTracks {
				r.logger.Debug(u.Message, "phase", u.Phase)
				continue
			}
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()

	report, runErr := pipeline.Run(ctx, req, progress)
	close(progress)
	<-done

	if report != nil {
		if cmd.Bool("json") {
			if err := r.writeJSON(report, true); err != nil {
				return err
			}
		} else if err := r.writeBytes(formatter.ReportToText(report)); err != nil {
			return err
		}
	}
	return runErr
}

// reconcileOptions applies --workers and --existing-limit over the sync config.
func (r *Runner) reconcileOptions(cmd *cli.Command) (tasks.ReconcileOptions, error) {
	opts := tasks.ReconcileOptionsFrom(r.cfg().Sync)

	if cmd.IsSet("workers") {
		w := cmd.Int("workers")
		if w < 1 {
			return opts, fmt.Errorf("%w: --workers must be >= 1", shared.ErrInvalidArgument)
		}
		opts.Workers = w
	}
	if cmd.IsSet("existing-limit") {
		n := cmd.Int("existing-limit")
		if n < 0 {
			return opts, fmt.Errorf("%w: --existing-limit must be >= 0", shared.ErrInvalidArgument)
		}
		opts.ExistingLimit = n
	}
	return opts, nil
}
