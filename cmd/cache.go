package main

import (
	"context"

	"github.com/desertthunder/shzx/internal/repositories"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// CacheStats reports how many search matches are cached and how often they were reused.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.ledger()
	if err != nil {
		return err
	}

	stats, err := repositories.NewMatchCacheRepository(db).Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	r.writePlain("Cached matches: %s\n", humanize.Comma(int64(stats.Entries)))
	return r.writePlain("Cache hits: %s\n", humanize.Comma(int64(stats.Hits)))
}

// CacheClear removes every cached match so the next sync searches again.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.ledger()
	if err != nil {
		return err
	}

	n, err := repositories.NewMatchCacheRepository(db).Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("cleared match cache", "entries", n)
	return r.writePlain("✓ Removed %s cached matches\n", humanize.Comma(n))
}
