package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shzx/internal/models"
)

// MatchCacheRepository stores resolved catalog matches keyed by normalized song identity.
//
// Implements tasks.MatchCache.
type MatchCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMatchCacheRepository creates a new MatchCacheRepository with the given database connection
func NewMatchCacheRepository(db *sql.DB) *MatchCacheRepository {
	return &MatchCacheRepository{db: db, now: time.Now}
}

// Lookup returns the cached match for song, or (nil, nil) on a miss. A hit bumps the entry's hit counter.
func (r *MatchCacheRepository) Lookup(ctx context.Context, song models.SongRef) (*models.MatchResult, error) {
	key := song.Key()

	var m models.MatchResult
	err := r.db.QueryRowContext(ctx,
		`SELECT title, artist, video_id FROM match_cache WHERE song_key = ?`, key,
	).Scan(&m.Title, &m.Artist, &m.VideoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match cache: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE match_cache SET hits = hits + 1 WHERE song_key = ?`, key); err != nil {
		return nil, fmt.Errorf("failed to update match cache hits: %w", err)
	}
	return &m, nil
}

// Store inserts or replaces the cached match for song.
func (r *MatchCacheRepository) Store(ctx context.Context, song models.SongRef, match models.MatchResult) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO match_cache (song_key, title, artist, video_id, hits, updated_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(song_key) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			video_id = excluded.video_id,
			updated_at = excluded.updated_at
	`, song.Key(), match.Title, match.Artist, match.VideoID, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	return nil
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
}

// Stats counts cached entries and total hits.
func (r *MatchCacheRepository) Stats(ctx context.Context) (CacheStats, error) {
	var s CacheStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM match_cache`,
	).Scan(&s.Entries, &s.Hits)
	if err != nil {
		return CacheStats{}, fmt.Errorf("failed to count match cache: %w", err)
	}
	return s, nil
}

// Clear removes every cached match and returns how many were removed.
func (r *MatchCacheRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM match_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear match cache: %w", err)
	}
	return result.RowsAffected()
}
