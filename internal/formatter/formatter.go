// package formatter renders extracted songs and run reports as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/dustin/go-humanize"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat resolves a format name, accepting "md" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// SongsToCSV converts a song set to CSV with columns: Title, Artist, Key
func SongsToCSV(songs *models.SongSet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Title", "Artist", "Key"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range songs.Sorted() {
		if err := writer.Write([]string{s.Title, s.Artist, s.Key()}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts a song set to a Markdown list under title.
func SongsToMarkdown(songs *models.SongSet, title string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", songs.Len())

	for i, s := range songs.Sorted() {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, s.Artist, s.Title)
	}

	return buf.Bytes()
}

// SongsToText converts a song set to one "{title} - {artist}" line per song.
func SongsToText(songs *models.SongSet) []byte {
	var buf bytes.Buffer
	for _, s := range songs.Sorted() {
		buf.WriteString(s.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// SongsToJSON converts a song set to a JSON array of {title, artist} objects.
func SongsToJSON(songs *models.SongSet, pretty bool) ([]byte, error) {
	sorted := songs.Sorted()
	if sorted == nil {
		sorted = []models.SongRef{}
	}
	return shared.MarshalJSON(sorted, pretty)
}

// FormatSongs renders songs in format f.
func FormatSongs(songs *models.SongSet, f Format, title string) ([]byte, error) {
	switch f {
	case FormatJSON:
		return SongsToJSON(songs, true)
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatMarkdown:
		return SongsToMarkdown(songs, title), nil
	case FormatText:
		return SongsToText(songs), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ReportToText renders a run report for terminal output.
func ReportToText(r *models.Report) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s (%s)\n", r.PlaylistTitle, r.PlaylistID)
	fmt.Fprintf(&buf, "Extracted: %d  Existing: %d", r.TotalExtracted, r.ExistingCount)
	if r.ExistingTruncated {
		buf.WriteString(" (limit reached)")
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "Added: %d  Skipped: %d  Failed: %d\n", r.SongsAdded, r.SkippedCount, r.FailedCount)

	writeSection := func(heading, mark string, songs []string) {
		if len(songs) == 0 {
			return
		}
		fmt.Fprintf(&buf, "\n%s:\n", heading)
		for _, s := range songs {
			fmt.Fprintf(&buf, "  %s %s\n", mark, s)
		}
	}
	writeSection("Added", "+", r.Added)
	writeSection("Skipped (already in playlist)", "=", r.Skipped)
	writeSection("No match", "x", r.Failed)

	return buf.Bytes()
}

// ReportToMarkdown renders a run report as a Markdown document.
func ReportToMarkdown(r *models.Report) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", r.PlaylistTitle)
	fmt.Fprintf(&buf, "**Playlist ID**: %s\n\n", r.PlaylistID)
	fmt.Fprintf(&buf, "| Extracted | Existing | Added | Skipped | Failed |\n")
	fmt.Fprintf(&buf, "|---|---|---|---|---|\n")
	fmt.Fprintf(&buf, "| %d | %d | %d | %d | %d |\n",
		r.TotalExtracted, r.ExistingCount, r.SongsAdded, r.SkippedCount, r.FailedCount)

	for _, section := range []struct {
		heading string
		songs   []string
	}{
		{"Added", r.Added},
		{"Skipped", r.Skipped},
		{"No match", r.Failed},
	} {
		if len(section.songs) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", section.heading)
		for _, s := range section.songs {
			fmt.Fprintf(&buf, "- %s\n", s)
		}
	}

	return buf.Bytes()
}

// RunsToText renders a run listing, one line per run, with ages relative to now.
func RunsToText(runs []*models.Run, now time.Time) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded.\n")
		return buf.Bytes()
	}

	for _, run := range runs {
		r := run.Report
		status := r.Status
		if run.Error != "" {
			status = "error: " + run.Error
		}
		fmt.Fprintf(&buf, "%s  %-14s  %s  +%d =%d x%d  %s\n",
			shortID(run.ID),
			humanize.RelTime(run.CreatedAt, now, "ago", "from now"),
			r.PlaylistTitle,
			r.SongsAdded, r.SkippedCount, r.FailedCount,
			status,
		)
	}
	return buf.Bytes()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteFile writes data to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
