package main

import (
	"context"
	"path/filepath"

	"github.com/desertthunder/shzx/internal/formatter"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Extract prints the deduplicated songs of a history store in the requested format.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	storePath, cleanup, err := r.storePath(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := tasks.NewPipeline(tasks.ReconcileOptionsFrom(r.cfg().Sync), tasks.WithLogger(r.logger))
	songs, err := pipeline.Extract(ctx, storePath, nil)
	if err != nil {
		return err
	}

	data, err := formatter.FormatSongs(songs, format, "Shazam History")
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if filepath.Ext(output) == "" {
			output += "." + format.Extension()
		}
		if err := formatter.WriteFile(output, data); err != nil {
			return err
		}
		r.logger.Info("wrote songs", "path", output, "songs", songs.Len(), "format", format)
		return r.writePlain("✓ Wrote %d songs to %s\n", songs.Len(), output)
	}
	return r.writeBytes(data)
}
