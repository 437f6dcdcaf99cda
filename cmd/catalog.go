package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CatalogSearch runs one catalog search and marks the candidate a sync would pick.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	catalog, err := r.newCatalog(ctx, cmd.String("auth"))
	if err != nil {
		return err
	}

	r.logger.Info("searching catalog", "service", catalog.Name(), "query", query)
	results, err := catalog.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}
	if len(results) == 0 {
		return r.writePlain("No results for %q\n", query)
	}

	for i, res := range results {
		marker := " "
		if i == 0 {
			marker = "→"
		}
		artists := make([]string, len(res.Artists))
		for j, a := range res.Artists {
			artists[j] = a.Name
		}
		r.writePlain("%s %s - %s (%s)\n", marker, res.Title, strings.Join(artists, ", "), res.VideoID)
	}
	return nil
}

// CatalogPlaylists lists the library playlists.
func (r *Runner) CatalogPlaylists(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.newCatalog(ctx, cmd.String("auth"))
	if err != nil {
		return err
	}

	playlists, err := catalog.LibraryPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s playlists (%d)", catalog.Name(), len(playlists)))
	for _, pl := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", pl.ID, pl.Name, pl.TrackCount)
	}
	return nil
}

// CatalogTracks lists the tracks of one playlist.
func (r *Runner) CatalogTracks(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must be >= 0", shared.ErrInvalidArgument)
	}

	catalog, err := r.newCatalog(ctx, cmd.String("auth"))
	if err != nil {
		return err
	}

	tracks, err := catalog.PlaylistTracks(ctx, id, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	for _, t := range tracks {
		r.writePlain("%s - %s (%s)\n", t.Title, t.Artist, t.VideoID)
	}
	return nil
}
