// package models defines the data model for the history reconciler
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/shzx/internal/shared"
)

// RawRecord is a key/value pair as stored, before decoding.
type RawRecord struct {
	Key   []byte
	Value []byte
}

// DecodedValue is either a structured JSON document or the text fallback for a value that is not JSON.
type DecodedValue struct {
	Doc  any    // decoded JSON tree (map[string]any, []any, string, float64, bool, nil)
	Text string // best-effort text, set only when structured decoding failed
	ok   bool
}

// Structured wraps a decoded JSON document.
func Structured(doc any) DecodedValue { return DecodedValue{Doc: doc, ok: true} }

// Text wraps the text fallback for an undecodable value.
func Text(s string) DecodedValue { return DecodedValue{Text: s} }

// IsStructured reports whether the value decoded as JSON.
func (v DecodedValue) IsStructured() bool { return v.ok }

// DecodedHistory maps each store key to its decoded value.
type DecodedHistory map[string]DecodedValue

// SongRef is a canonical title/artist pair.
type SongRef struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// NewSongRef trims title and artist and rejects the pair when either is blank.
func NewSongRef(title, artist string) (SongRef, bool) {
	s := SongRef{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	return s, s.Title != "" && s.Artist != ""
}

// Key returns the normalized identity used for deduplication.
func (s SongRef) Key() string {
	return shared.NormalizeTrackKey(s.Title, s.Artist)
}

// String renders the song as "{title} - {artist}", which is also the catalog query.
func (s SongRef) String() string {
	return fmt.Sprintf("%s - %s", s.Title, s.Artist)
}

// SongSet is a set of songs keyed by normalized identity.
//
// When spellings collide the lexicographically smallest is kept, so the set never depends on insertion order.
type SongSet struct {
	songs map[string]SongRef
}

// NewSongSet builds a set from songs, collapsing duplicates by normalized identity.
func NewSongSet(songs ...SongRef) *SongSet {
	set := &SongSet{songs: make(map[string]SongRef, len(songs))}
	for _, s := range songs {
		set.add(s)
	}
	return set
}

func (s *SongSet) add(song SongRef) {
	key := song.Key()
	if existing, ok := s.songs[key]; ok && existing.String() <= song.String() {
		return
	}
	s.songs[key] = song
}

// Len returns the number of distinct songs.
func (s *SongSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.songs)
}

// Contains reports whether a song with the same normalized identity is in the set.
func (s *SongSet) Contains(song SongRef) bool {
	if s == nil {
		return false
	}
	_, ok := s.songs[song.Key()]
	return ok
}

// Sorted returns the songs ordered by normalized key.
func (s *SongSet) Sorted() []SongRef {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.songs))
	for k := range s.songs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]SongRef, len(keys))
	for i, k := range keys {
		out[i] = s.songs[k]
	}
	return out
}

// Playlist represents a playlist in the user's catalog library.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// PlaylistTrack is an entry already present in a destination playlist.
type PlaylistTrack struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	VideoID string `json:"video_id"`
}

// Key returns the normalized identity of the entry.
func (t PlaylistTrack) Key() string {
	return shared.NormalizeTrackKey(t.Title, t.Artist)
}

// Artist is an artist credit on a search candidate.
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// SearchResult is a catalog search candidate as returned by the service.
type SearchResult struct {
	Title   string   `json:"title"`
	Artists []Artist `json:"artists"`
	VideoID string   `json:"videoId"`
}

// MatchResult is a resolved catalog candidate.
type MatchResult struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	VideoID string `json:"video_id"`
}

// Key returns the normalized identity of the matched track.
func (m MatchResult) Key() string {
	return shared.NormalizeTrackKey(m.Title, m.Artist)
}

// Outcome classifies what a run did with one extracted song.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeSkipped Outcome = "skipped_duplicate"
	OutcomeNoMatch Outcome = "failed_no_match"
)

// SongOutcome pairs an extracted song with its classification.
type SongOutcome struct {
	Song    SongRef      `json:"song"`
	Outcome Outcome      `json:"outcome"`
	Match   *MatchResult `json:"match,omitempty"`
	Err     error        `json:"-"`
}

// Report summarizes a reconciliation run.
type Report struct {
	RunID             string        `json:"run_id,omitempty"`
	Status            string        `json:"status"`
	PlaylistID        string        `json:"playlist_id"`
	PlaylistTitle     string        `json:"playlist_title,omitempty"`
	SongsAdded        int           `json:"songs_added"`
	TotalExtracted    int           `json:"total_extracted"`
	ExistingCount     int           `json:"existing_count"`
	ExistingTruncated bool          `json:"existing_truncated"`
	SkippedCount      int           `json:"skipped_count"`
	FailedCount       int           `json:"failed_count"`
	Added             []string      `json:"added"`
	Skipped           []string      `json:"skipped"`
	Failed            []string      `json:"failed"`
	VideoIDs          []string      `json:"video_ids,omitempty"`
	Outcomes          []SongOutcome `json:"-"`
}

// NewReport returns an empty report whose song lists encode as [] rather than null.
func NewReport() *Report {
	return &Report{
		Status:  "success",
		Added:   []string{},
		Skipped: []string{},
		Failed:  []string{},
	}
}

// Record appends a classified song to the report and updates the counters.
func (r *Report) Record(o SongOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Outcome {
	case OutcomeAdded:
		r.Added = append(r.Added, o.Song.String())
		r.VideoIDs = append(r.VideoIDs, o.Match.VideoID)
		r.SongsAdded++
	case OutcomeSkipped:
		r.Skipped = append(r.Skipped, o.Song.String())
		r.SkippedCount++
	case OutcomeNoMatch:
		r.Failed = append(r.Failed, o.Song.String())
		r.FailedCount++
	}
}

// Run is a persisted summary of a past reconciliation run.
type Run struct {
	ID        string
	Report    Report
	Error     string
	CreatedAt time.Time
}
