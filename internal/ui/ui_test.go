package ui

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	tu "github.com/desertthunder/shzx/internal/testing"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func newTestModel(t *testing.T, catalog *tu.FakeCatalog) *Model {
	t.Helper()
	store := filepath.Join(t.TempDir(), "db")
	tu.WriteStore(t, store, map[string]string{
		"k1": `{"track":{"title":"Song A","subtitle":"Artist A"}}`,
		"k2": `{"track":{"title":"Song B","subtitle":"Artist B"}}`,
		"k3": "not json",
	})

	pipeline := tasks.NewPipeline(tasks.ReconcileOptions{
		PlaylistTitle: "Shazam Playlist",
		ExistingLimit: 2000,
		Workers:       1,
	})
	return NewModel(context.Background(), pipeline, tasks.SyncRequest{StorePath: store, Catalog: catalog})
}

// drain runs the sync goroutine's updates through the model until the result arrives.
func drain(t *testing.T, m *Model) {
	t.Helper()
	for i := 0; i < 100 && m.view == SyncView; i++ {
		m.Update(waitForProgress(m.progressChan, m.doneChan)())
	}
	if m.view != ResultView {
		t.Fatalf("Expected ResultView after sync, got %v", m.view)
	}
}

func TestModel(t *testing.T) {
	t.Run("extracts songs into the list", func(t *testing.T) {
		m := newTestModel(t, tu.NewFakeCatalog())
		m.Update(m.extract()())

		if m.view != SongListView {
			t.Fatalf("Expected SongListView, got %v", m.view)
		}
		if got := len(m.songList.Items()); got != 2 {
			t.Errorf("Expected 2 songs, got %d", got)
		}
	})

	t.Run("extraction error is shown", func(t *testing.T) {
		pipeline := tasks.NewPipeline(tasks.ReconcileOptions{PlaylistTitle: "x", Workers: 1})
		req := tasks.SyncRequest{StorePath: filepath.Join(t.TempDir(), "missing")}
		m := NewModel(context.Background(), pipeline, req)
		m.Update(m.extract()())

		if !errors.Is(m.Err(), shared.ErrStoreOpen) {
			t.Errorf("Expected ErrStoreOpen, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Error") {
			t.Errorf("Expected error view, got %q", m.View())
		}
	})

	t.Run("confirm then sync", func(t *testing.T) {
		catalog := tu.NewFakeCatalog().Song("Song A", "Artist A", "vidA")
		m := newTestModel(t, catalog)
		m.Update(m.extract()())

		m.Update(enter)
		if m.view != ConfirmView {
			t.Fatalf("Expected ConfirmView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Shazam Playlist") {
			t.Errorf("Expected confirm to name the playlist, got %q", m.View())
		}

		m.Update(runes("y"))
		if m.view != SyncView {
			t.Fatalf("Expected SyncView, got %v", m.view)
		}
		drain(t, m)

		report := m.Report()
		if report == nil || m.Err() != nil {
			t.Fatalf("Expected report without error, got %v, %v", report, m.Err())
		}
		if report.SongsAdded != 1 || report.FailedCount != 1 {
			t.Errorf("Expected 1 added and 1 failed, got %d and %d", report.SongsAdded, report.FailedCount)
		}
		view := m.View()
		if !strings.Contains(view, "Sync Complete") || !strings.Contains(view, "Song B - Artist B") {
			t.Errorf("Unexpected result view: %q", view)
		}
	})

	t.Run("decline returns to the list", func(t *testing.T) {
		m := newTestModel(t, tu.NewFakeCatalog())
		m.Update(m.extract()())
		m.Update(enter)
		m.Update(runes("n"))

		if m.view != SongListView {
			t.Errorf("Expected SongListView, got %v", m.view)
		}
	})

	t.Run("append failure is reported", func(t *testing.T) {
		catalog := tu.NewFakeCatalog().Song("Song A", "Artist A", "vidA")
		catalog.AppendErr = errors.New("quota")
		m := newTestModel(t, catalog)
		m.Update(m.extract()())
		m.Update(enter)
		m.Update(runes("y"))
		drain(t, m)

		if !errors.Is(m.Err(), shared.ErrAppendFailed) {
			t.Errorf("Expected ErrAppendFailed, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Sync failed") {
			t.Errorf("Expected failure view, got %q", m.View())
		}
	})

	t.Run("restart and quit", func(t *testing.T) {
		m := newTestModel(t, tu.NewFakeCatalog())
		m.Update(m.extract()())
		m.Update(enter)
		m.Update(runes("y"))
		drain(t, m)

		m.Update(runes("r"))
		if m.view != SongListView || m.Report() != nil {
			t.Errorf("Expected reset to SongListView, got %v", m.view)
		}

		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("Expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("Expected tea.QuitMsg")
		}
	})
}

func TestPercent(t *testing.T) {
	tests := []struct {
		update tasks.ProgressUpdate
		want   float64
	}{
		{tasks.ProgressUpdate{Phase: tasks.ReadStore}, 0},
		{tasks.ProgressUpdate{Phase: tasks.SearchTracks, Step: 0, Total: 0}, 0.15},
		{tasks.ProgressUpdate{Phase: tasks.SearchTracks, Step: 2, Total: 4}, 0.525},
		{tasks.ProgressUpdate{Phase: tasks.Done}, 1},
	}
	for _, tt := range tests {
		if got := percent(tt.update); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percent(%v) = %v, want %v", tt.update.Phase, got, tt.want)
		}
	}
}

func TestKeyMapForView(t *testing.T) {
	keys := newKeyMap()
	tests := []struct {
		view ViewState
		want int
	}{
		{SongListView, 4},
		{ConfirmView, 2},
		{ResultView, 2},
		{SyncView, 1},
	}

	for _, tt := range tests {
		if got := len(keys.forView(tt.view)); got != tt.want {
			t.Errorf("view %d: expected %d bindings, got %d", tt.view, tt.want, got)
		}
	}
}
