package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
	"golang.org/x/sync/semaphore"
)

// ReconcileOptions controls destination lookup and matching concurrency.
type ReconcileOptions struct {
	PlaylistTitle       string
	PlaylistDescription string
	ExistingLimit       int // entries fetched from the destination; 0 fetches all
	Workers             int // concurrent searches; values below 1 mean 1
}

// ReconcileOptionsFrom builds options from the [sync] config section.
func ReconcileOptionsFrom(cfg shared.SyncConfig) ReconcileOptions {
	return ReconcileOptions{
		PlaylistTitle:       cfg.PlaylistTitle,
		PlaylistDescription: cfg.PlaylistDescription,
		ExistingLimit:       cfg.ExistingLimit,
		Workers:             cfg.Workers,
	}
}

// Reconciler appends newly matched songs to a destination playlist without duplicating its entries.
type Reconciler struct {
	catalog services.Catalog
	matcher *Matcher
	opts    ReconcileOptions
	logger  *log.Logger
}

// NewReconciler creates a Reconciler. logger may be nil.
func NewReconciler(catalog services.Catalog, matcher *Matcher, opts ReconcileOptions, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if matcher == nil {
		matcher = NewMatcher(catalog, nil, logger)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Reconciler{catalog: catalog, matcher: matcher, opts: opts, logger: logger}
}

// ResolvePlaylist finds a library playlist whose trimmed title equals title ignoring case, or creates one.
func (r *Reconciler) ResolvePlaylist(ctx context.Context, title string) (models.Playlist, bool, error) {
	playlists, err := r.catalog.LibraryPlaylists(ctx)
	if err != nil {
		return models.Playlist{}, false, fmt.Errorf("%w: list playlists: %v", shared.ErrRemoteService, err)
	}

	want := strings.TrimSpace(title)
	for _, pl := range playlists {
		if strings.EqualFold(strings.TrimSpace(pl.Name), want) {
			return pl, false, nil
		}
	}

	id, err := r.catalog.CreatePlaylist(ctx, want, r.opts.PlaylistDescription)
	if err != nil {
		return models.Playlist{}, false, fmt.Errorf("%w: create playlist %q: %v", shared.ErrRemoteService, want, err)
	}
	return models.Playlist{ID: id, Name: want, Description: r.opts.PlaylistDescription}, true, nil
}

// Reconcile resolves the destination, matches every song and appends the new ones in a single call.
//
// On an append failure the report built so far is returned together with an error wrapping
// [shared.ErrAppendFailed].
func (r *Reconciler) Reconcile(ctx context.Context, songs *models.SongSet, progress chan<- ProgressUpdate) (*models.Report, error) {
	title := r.opts.PlaylistTitle
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: playlist title is empty", shared.ErrMissingArgument)
	}

	sendProgress(progress, resolvePlaylistUpdate(title))
	playlist, created, err := r.ResolvePlaylist(ctx, title)
	if err != nil {
		return nil, err
	}
	r.logger.Info("resolved playlist", "id", playlist.ID, "title", playlist.Name, "created", created)
	sendProgress(progress, resolvedPlaylistUpdate(playlist, created))

	existing, err := r.catalog.PlaylistTracks(ctx, playlist.ID, r.opts.ExistingLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch playlist %s: %v", shared.ErrRemoteService, playlist.ID, err)
	}
	index := NewTrackIndex(existing)
	truncated := r.opts.ExistingLimit > 0 && len(existing) >= r.opts.ExistingLimit
	if truncated {
		r.logger.Warn("existing tracks reached fetch limit, duplicates beyond it are not detected",
			"limit", r.opts.ExistingLimit)
	}
	sendProgress(progress, fetchExistingUpdate(len(existing), truncated))

	report := models.NewReport()
	report.PlaylistID = playlist.ID
	report.PlaylistTitle = playlist.Name
	report.TotalExtracted = songs.Len()
	report.ExistingCount = index.Len()
	report.ExistingTruncated = truncated

	sorted := songs.Sorted()
	matches := r.matchAll(ctx, sorted, progress)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	var toAdd []string
	for i, song := range sorted {
		o := decide(index, song, matches[i])
		if o.Err != nil {
			r.logger.Debug("no match", "song", song.String(), "error", o.Err)
		}
		if o.Outcome == models.OutcomeAdded {
			toAdd = append(toAdd, o.Match.VideoID)
		}
		report.Record(o)
	}

	if len(toAdd) > 0 {
		sendProgress(progress, appendTracksUpdate(len(toAdd)))
		if err := r.catalog.AddPlaylistItems(ctx, playlist.ID, toAdd); err != nil {
			report.Status = "error"
			return report, fmt.Errorf("%w: %d tracks to %s: %v", shared.ErrAppendFailed, len(toAdd), playlist.ID, err)
		}
	}

	r.logger.Info("reconciled playlist",
		"id", playlist.ID, "added", report.SongsAdded, "skipped", report.SkippedCount, "failed", report.FailedCount)
	return report, nil
}

type matchOutcome struct {
	match *models.MatchResult
	err   error
}

// matchAll searches every song on at most opts.Workers goroutines. Results are indexed like songs.
func (r *Reconciler) matchAll(ctx context.Context, songs []models.SongRef, progress chan<- ProgressUpdate) []matchOutcome {
	results := make([]matchOutcome, len(songs))
	total := len(songs)
	if total == 0 {
		return results
	}
	sendProgress(progress, searchTracksUpdate(0, total, nil))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	sem := semaphore.NewWeighted(int64(r.opts.Workers))

	for idx, song := range songs {
		wg.Add(1)
		if err := sem.Acquire(ctx, 1); err != nil {
			results[idx] = matchOutcome{err: err}
			wg.Done()
			continue
		}

		go func(idx int, song models.SongRef) {
			defer wg.Done()
			defer sem.Release(1)

			match, err := r.matcher.Match(ctx, song)
			results[idx] = matchOutcome{match: match, err: err}

			mu.Lock()
			done++
			step := done
			mu.Unlock()
			sendProgress(progress, searchTracksUpdate(step, total, &song))
		}(idx, song)
	}

	wg.Wait()
	return results
}

// decide classifies one song against the index, claiming the matched identity when it is new.
func decide(index *TrackIndex, song models.SongRef, m matchOutcome) models.SongOutcome {
	if m.err != nil || m.match == nil {
		return models.SongOutcome{Song: song, Outcome: models.OutcomeNoMatch, Err: m.err}
	}
	if !index.Claim(m.match.Key()) {
		return models.SongOutcome{Song: song, Outcome: models.OutcomeSkipped, Match: m.match}
	}
	return models.SongOutcome{Song: song, Outcome: models.OutcomeAdded, Match: m.match}
}
