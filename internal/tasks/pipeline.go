package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shzx/internal/history"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
)

// RunRecorder persists the summary of a finished run.
type RunRecorder interface {
	Create(ctx context.Context, run *models.Run) error
}

// SyncRequest describes one reconciliation run.
type SyncRequest struct {
	StorePath     string           // LevelDB directory holding the recognition history
	Catalog       services.Catalog // authenticated catalog client
	PlaylistTitle string           // destination title; empty uses the configured default
}

// Pipeline runs store read, extraction and reconciliation in sequence.
type Pipeline struct {
	opts   ReconcileOptions
	cache  MatchCache
	runs   RunRecorder
	logger *log.Logger
	now    func() time.Time
}

// PipelineOption configures a [Pipeline].
type PipelineOption func(*Pipeline)

// WithMatchCache consults and fills cache while matching.
func WithMatchCache(cache MatchCache) PipelineOption {
	return func(p *Pipeline) { p.cache = cache }
}

// WithRunRecorder records every run that reaches reconciliation.
func WithRunRecorder(runs RunRecorder) PipelineOption {
	return func(p *Pipeline) { p.runs = runs }
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a Pipeline with the given reconcile options.
func NewPipeline(opts ReconcileOptions, options ...PipelineOption) *Pipeline {
	p := &Pipeline{opts: opts, logger: log.New(io.Discard), now: time.Now}
	for _, o := range options {
		o(p)
	}
	return p
}

// PlaylistTitle returns override when it is not blank, otherwise the configured title.
func (p *Pipeline) PlaylistTitle(override string) string {
	if title := strings.TrimSpace(override); title != "" {
		return title
	}
	return p.opts.PlaylistTitle
}

// Extract reads the store at path and returns the deduplicated songs it describes.
//
// The store is closed before Extract returns.
func (p *Pipeline) Extract(ctx context.Context, path string, progress chan<- ProgressUpdate) (*models.SongSet, error) {
	sendProgress(progress, readStoreUpdate(path))
	decoded, err := history.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}

	songs, stats := history.Extract(decoded)
	p.logger.Debug("extracted songs",
		"records", stats.Records, "text", stats.Text, "dropped", stats.Dropped, "shapes", stats.Summary())
	p.logger.Info("read history", "records", stats.Records, "songs", songs.Len())
	sendProgress(progress, extractedUpdate(songs, stats.Records))
	return songs, nil
}

// Run extracts songs from req.StorePath and reconciles them into the destination playlist.
//
// A run that fails before reconciliation starts is not recorded.
func (p *Pipeline) Run(ctx context.Context, req SyncRequest, progress chan<- ProgressUpdate) (*models.Report, error) {
	if req.StorePath == "" {
		return nil, fmt.Errorf("%w: store path", shared.ErrMissingArgument)
	}
	if req.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", shared.ErrMissingArgument)
	}

	songs, err := p.Extract(ctx, req.StorePath, progress)
	if err != nil {
		return nil, err
	}
	return p.Sync(ctx, songs, req, progress)
}

// Sync reconciles an already extracted song set into the destination playlist and records the run.
//
// req.StorePath is ignored.
func (p *Pipeline) Sync(
	ctx context.Context, songs *models.SongSet, req SyncRequest, progress chan<- ProgressUpdate,
) (*models.Report, error) {
	if req.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", shared.ErrMissingArgument)
	}

	opts := p.opts
	opts.PlaylistTitle = p.PlaylistTitle(req.PlaylistTitle)

	matcher := NewMatcher(req.Catalog, p.cache, p.logger)
	reconciler := NewReconciler(req.Catalog, matcher, opts, p.logger)

	report, runErr := reconciler.Reconcile(ctx, songs, progress)
	if report == nil {
		report = models.NewReport()
		report.Status = "error"
		report.PlaylistTitle = opts.PlaylistTitle
		report.TotalExtracted = songs.Len()
	}
	report.RunID = shared.GenerateID()

	p.record(ctx, report, runErr, progress)

	if runErr != nil {
		return report, runErr
	}
	sendProgress(progress, doneUpdate(report))
	return report, nil
}

func (p *Pipeline) record(ctx context.Context, report *models.Report, runErr error, progress chan<- ProgressUpdate) {
	if p.runs == nil {
		return
	}

	run := &models.Run{ID: report.RunID, Report: *report, CreatedAt: p.now().UTC()}
	if runErr != nil {
		run.Error = runErr.Error()
		run.Report.Status = "error"
	}

	// a closed request context must not lose the ledger entry
	if err := p.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		p.logger.Warn("failed to record run", "id", run.ID, "error", err)
		return
	}
	sendProgress(progress, recordRunUpdate(run.ID))
}
