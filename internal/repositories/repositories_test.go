package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
)

var (
	_ tasks.MatchCache  = (*MatchCacheRepository)(nil)
	_ tasks.RunRecorder = (*RunRepository)(nil)
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(created time.Time) *models.Run {
	rep := models.NewReport()
	rep.PlaylistID = "PL1"
	rep.PlaylistTitle = "Shazam Playlist"
	rep.TotalExtracted = 3
	rep.ExistingCount = 10
	rep.ExistingTruncated = true
	rep.Record(models.SongOutcome{
		Song:    models.SongRef{Title: "A", Artist: "B"},
		Outcome: models.OutcomeAdded,
		Match:   &models.MatchResult{Title: "A", Artist: "B", VideoID: "xyz"},
	})
	rep.Record(models.SongOutcome{Song: models.SongRef{Title: "C", Artist: "D"}, Outcome: models.OutcomeSkipped})
	rep.Record(models.SongOutcome{Song: models.SongRef{Title: "E", Artist: "F"}, Outcome: models.OutcomeNoMatch})

	return &models.Run{Report: *rep, CreatedAt: created}
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := sampleRun(time.Time{})

		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID == "" {
			t.Error("run ID should be set after creation")
		}
		if run.CreatedAt.IsZero() {
			t.Error("created_at should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := sampleRun(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
		run.ID = "run-1"
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(ctx, "run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		rep := got.Report
		if rep.RunID != "run-1" || rep.PlaylistID != "PL1" || rep.Status != "success" {
			t.Errorf("unexpected report header %+v", rep)
		}
		if !rep.ExistingTruncated || rep.ExistingCount != 10 || rep.TotalExtracted != 3 {
			t.Errorf("unexpected counters %+v", rep)
		}
		if rep.SongsAdded != 1 || rep.SkippedCount != 1 || rep.FailedCount != 1 {
			t.Errorf("unexpected outcome counts %+v", rep)
		}
		if len(rep.Added) != 1 || rep.Added[0] != "A - B" || rep.VideoIDs[0] != "xyz" {
			t.Errorf("unexpected added songs %v %v", rep.Added, rep.VideoIDs)
		}
		if len(rep.Skipped) != 1 || rep.Skipped[0] != "C - D" {
			t.Errorf("unexpected skipped songs %v", rep.Skipped)
		}
		if len(rep.Failed) != 1 || rep.Failed[0] != "E - F" {
			t.Errorf("unexpected failed songs %v", rep.Failed)
		}
		if !got.CreatedAt.Equal(run.CreatedAt) {
			t.Errorf("expected created_at %s, got %s", run.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Create records errors", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := sampleRun(time.Now())
		run.Report.Status = "error"
		run.Error = "playlist append failed: 503"

		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		got, err := repo.Get(ctx, run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Error != run.Error || got.Report.Status != "error" {
			t.Errorf("expected error to round trip, got %+v", got)
		}
	})

	t.Run("duplicate ID fails without partial rows", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		run := sampleRun(time.Now())
		run.ID = "dup"
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		again := sampleRun(time.Now())
		again.ID = "dup"
		if err := repo.Create(ctx, again); err == nil {
			t.Fatal("expected duplicate insert to fail")
		}

		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM run_songs WHERE run_id = 'dup'`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 songs, got %d", n)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, id := range []string{"old", "mid", "new"} {
			run := sampleRun(base.Add(time.Duration(i) * time.Hour))
			run.ID = id
			if err := repo.Create(ctx, run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "mid" {
			t.Errorf("expected [new mid], got %v", runIDs(runs))
		}

		all, err := repo.List(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 runs, got %d", len(all))
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		run := sampleRun(time.Now())
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(ctx, run.ID); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM run_songs`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Errorf("expected songs to cascade, got %d", n)
		}
		if err := repo.Delete(ctx, run.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func runIDs(runs []*models.Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestMatchCacheRepository(t *testing.T) {
	ctx := context.Background()
	song := models.SongRef{Title: "Song", Artist: "Artist"}

	t.Run("miss", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		m, err := repo.Lookup(ctx, song)
		if err != nil || m != nil {
			t.Errorf("expected (nil, nil), got %v, %v", m, err)
		}
	})

	t.Run("store and lookup by normalized identity", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		if err := repo.Store(ctx, song, models.MatchResult{Title: "Song", Artist: "Artist", VideoID: "v1"}); err != nil {
			t.Fatalf("failed to store: %v", err)
		}

		m, err := repo.Lookup(ctx, models.SongRef{Title: " song ", Artist: "ARTIST"})
		if err != nil {
			t.Fatalf("failed to lookup: %v", err)
		}
		if m == nil || m.VideoID != "v1" {
			t.Errorf("expected v1, got %v", m)
		}
	})

	t.Run("store replaces", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		repo.Store(ctx, song, models.MatchResult{Title: "Song", Artist: "Artist", VideoID: "v1"})
		repo.Store(ctx, song, models.MatchResult{Title: "Song", Artist: "Artist", VideoID: "v2"})

		m, err := repo.Lookup(ctx, song)
		if err != nil || m.VideoID != "v2" {
			t.Errorf("expected v2, got %v, %v", m, err)
		}
	})

	t.Run("stats and clear", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		repo.Store(ctx, song, models.MatchResult{Title: "Song", Artist: "Artist", VideoID: "v1"})
		repo.Store(ctx, models.SongRef{Title: "Other", Artist: "X"}, models.MatchResult{Title: "Other", Artist: "X", VideoID: "v3"})
		repo.Lookup(ctx, song)
		repo.Lookup(ctx, song)

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats.Entries != 2 || stats.Hits != 2 {
			t.Errorf("unexpected stats %+v", stats)
		}

		n, err := repo.Clear(ctx)
		if err != nil || n != 2 {
			t.Errorf("expected 2 cleared, got %d, %v", n, err)
		}
		if stats, _ := repo.Stats(ctx); stats.Entries != 0 {
			t.Errorf("expected empty cache, got %+v", stats)
		}
	})
}
