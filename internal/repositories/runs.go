package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/shared"
)

// RunRepository persists reconciliation run summaries and their per-song outcomes.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and its song outcomes in one transaction. An empty ID is generated.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	rep := run.Report

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, playlist_id, playlist_title, status, error,
				total_extracted, existing_count, existing_truncated,
				added_count, skipped_count, failed_count, created_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, rep.PlaylistID, rep.PlaylistTitle, rep.Status, run.Error,
			rep.TotalExtracted, rep.ExistingCount, rep.ExistingTruncated,
			rep.SongsAdded, rep.SkippedCount, rep.FailedCount, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_songs (run_id, position, title, artist, outcome, video_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare song insert: %w", err)
		}
		defer stmt.Close()

		for i, o := range rep.Outcomes {
			var videoID string
			if o.Match != nil {
				videoID = o.Match.VideoID
			}
			if _, err := stmt.ExecContext(ctx, run.ID, i, o.Song.Title, o.Song.Artist, string(o.Outcome), videoID); err != nil {
				return fmt.Errorf("failed to insert run song: %w", err)
			}
		}
		return nil
	})
}

// Get retrieves a run by ID, rebuilding its song lists from the stored outcomes.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, playlist_id, playlist_title, status, error,
			total_extracted, existing_count, existing_truncated,
			added_count, skipped_count, failed_count, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadSongs(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// List retrieves the most recent runs, newest first, without their song lists. limit <= 0 returns all runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT
			id, playlist_id, playlist_title, status, error,
			total_extracted, existing_count, existing_truncated,
			added_count, skipped_count, failed_count, created_at
		FROM runs
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Delete removes a run and, through the foreign key cascade, its songs.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return nil
}

func (r *RunRepository) loadSongs(ctx context.Context, run *models.Run) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, artist, outcome, video_id
		FROM run_songs
		WHERE run_id = ?
		ORDER BY position
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query run songs: %w", err)
	}
	defer rows.Close()

	rep := &run.Report
	rep.Added, rep.Skipped, rep.Failed = []string{}, []string{}, []string{}
	rep.VideoIDs = nil

	for rows.Next() {
		var (
			o       models.SongOutcome
			outcome string
			videoID string
		)
		if err := rows.Scan(&o.Song.Title, &o.Song.Artist, &outcome, &videoID); err != nil {
			return fmt.Errorf("failed to scan run song: %w", err)
		}
		o.Outcome = models.Outcome(outcome)
		if videoID != "" {
			o.Match = &models.MatchResult{VideoID: videoID}
		}

		rep.Outcomes = append(rep.Outcomes, o)
		switch o.Outcome {
		case models.OutcomeAdded:
			rep.Added = append(rep.Added, o.Song.String())
			rep.VideoIDs = append(rep.VideoIDs, videoID)
		case models.OutcomeSkipped:
			rep.Skipped = append(rep.Skipped, o.Song.String())
		case models.OutcomeNoMatch:
			rep.Failed = append(rep.Failed, o.Song.String())
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row from [sql.Row] or [sql.Rows] into a [models.Run]
func scanRun(s scanner) (*models.Run, error) {
	var (
		run       models.Run
		truncated bool
	)
	rep := &run.Report

	err := s.Scan(
		&run.ID, &rep.PlaylistID, &rep.PlaylistTitle, &rep.Status, &run.Error,
		&rep.TotalExtracted, &rep.ExistingCount, &truncated,
		&rep.SongsAdded, &rep.SkippedCount, &rep.FailedCount, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rep.RunID = run.ID
	rep.ExistingTruncated = truncated
	return &run, nil
}
