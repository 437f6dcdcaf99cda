// package testing contains shared testing utilities
package testing

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/syndtr/goleveldb/leveldb"
)

// FakeCatalog is an in-memory test double for [services.Catalog] that records every call.
type FakeCatalog struct {
	mu sync.Mutex

	Playlists []models.Playlist
	Tracks    map[string][]models.PlaylistTrack
	Results   map[string][]models.SearchResult // keyed by query
	NewID     string

	AuthErr    error
	ListErr    error
	CreateErr  error
	TracksErr  error
	AppendErr  error
	SearchErrs map[string]error // keyed by query

	Credentials map[string]string
	Searches    []string
	Created     []string
	TrackLimits []int
	Appends     [][]string
	AppendedTo  []string
}

// NewFakeCatalog returns an empty catalog whose created playlists get the ID "PLnew".
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Tracks:     make(map[string][]models.PlaylistTrack),
		Results:    make(map[string][]models.SearchResult),
		SearchErrs: make(map[string]error),
		NewID:      "PLnew",
	}
}

// Song registers a single search candidate for the query "{title} - {artist}".
func (f *FakeCatalog) Song(title, artist, videoID string) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	query := title + " - " + artist
	f.Results[query] = append(f.Results[query], models.SearchResult{
		Title:   title,
		Artists: []models.Artist{{Name: artist}},
		VideoID: videoID,
	})
	return f
}

func (f *FakeCatalog) Name() string { return "fake" }

func (f *FakeCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Credentials = credentials
	return f.AuthErr
}

func (f *FakeCatalog) LibraryPlaylists(ctx context.Context) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.Playlist(nil), f.Playlists...), nil
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, title)
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.Playlists = append(f.Playlists, models.Playlist{ID: f.NewID, Name: title, Description: description})
	return f.NewID, nil
}

func (f *FakeCatalog) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]models.PlaylistTrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TrackLimits = append(f.TrackLimits, limit)
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	tracks := f.Tracks[playlistID]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return append([]models.PlaylistTrack(nil), tracks...), nil
}

func (f *FakeCatalog) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)
	if err := f.SearchErrs[query]; err != nil {
		return nil, err
	}
	return f.Results[query], nil
}

func (f *FakeCatalog) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Appends = append(f.Appends, append([]string(nil), videoIDs...))
	f.AppendedTo = append(f.AppendedTo, playlistID)
	return f.AppendErr
}

// SearchCount returns how many searches were issued.
func (f *FakeCatalog) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Searches)
}

// WriteStore creates a LevelDB store at dir containing entries and closes it.
func WriteStore(t *testing.T, dir string, entries map[string]string) {
	t.Helper()
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create store at %s: %v", dir, err)
	}
	for k, v := range entries {
		if err := db.Put([]byte(k), []byte(v), nil); err != nil {
			t.Fatalf("Failed to write %s: %v", k, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
}

// ZipDir writes every file under root into a zip archive at dst, with paths relative to root.
func ZipDir(t *testing.T, root, dst string) {
	t.Helper()
	out, err := os.Create(dst)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to zip %s: %v", root, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
}

// StoreArchive builds a zip whose top level holds a "db" store with entries, and returns its path.
func StoreArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteStore(t, filepath.Join(root, "db"), entries)

	dst := filepath.Join(t.TempDir(), "shazam.zip")
	ZipDir(t, root, dst)
	return dst
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
