package tasks

import (
	"fmt"

	"github.com/desertthunder/shzx/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadStore Phase = iota
	ExtractSongs
	ResolvePlaylist
	FetchExisting
	SearchTracks
	AppendTracks
	RecordRun
	Done
)

func (p Phase) String() string {
	switch p {
	case ReadStore:
		return "read_store"
	case ExtractSongs:
		return "extract_songs"
	case ResolvePlaylist:
		return "resolve_playlist"
	case FetchExisting:
		return "fetch_existing"
	case SearchTracks:
		return "search_tracks"
	case AppendTracks:
		return "append_tracks"
	case RecordRun:
		return "record_run"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func readStoreUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadStore,
		Message: fmt.Sprintf("Reading history store (%s)...", path),
	}
}

func extractedUpdate(set *models.SongSet, records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractSongs,
		Step:    set.Len(),
		Total:   set.Len(),
		Message: fmt.Sprintf("Extracted %d songs from %d records", set.Len(), records),
		Data:    set,
	}
}

func resolvePlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Message: fmt.Sprintf("Looking up playlist %q...", title),
	}
}

func resolvedPlaylistUpdate(pl models.Playlist, created bool) ProgressUpdate {
	msg := fmt.Sprintf("Using playlist: %s (ID: %s)", pl.Name, pl.ID)
	if created {
		msg = fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID)
	}
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Message: msg,
		Data:    pl,
	}
}

func fetchExistingUpdate(count int, truncated bool) ProgressUpdate {
	msg := fmt.Sprintf("Playlist already has %d tracks", count)
	if truncated {
		msg += " (limit reached, older entries not checked)"
	}
	return ProgressUpdate{
		Phase:   FetchExisting,
		Step:    count,
		Total:   count,
		Message: msg,
	}
}

func searchTracksUpdate(step, total int, song *models.SongRef) ProgressUpdate {
	if song == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on YouTube Music...",
		}
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, song),
	}
}

func appendTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendTracks,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Adding %d tracks to playlist...", count),
	}
}

func recordRunUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Message: fmt.Sprintf("Recorded run %s", id),
	}
}

func doneUpdate(report *models.Report) ProgressUpdate {
	return ProgressUpdate{
		Phase: Done,
		Step:  report.TotalExtracted,
		Total: report.TotalExtracted,
		Message: fmt.Sprintf("Added %d, skipped %d, failed %d",
			report.SongsAdded, report.SkippedCount, report.FailedCount),
		Data: report,
	}
}
