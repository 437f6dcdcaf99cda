// YouTube Music API [Catalog] implementation
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYTBaseURL string        = "http://localhost:8080"
	defaultTimeout   time.Duration = 30 * time.Second
)

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	SetVideoID string          `json:"setVideoId,omitempty"`
}

// YouTubeService implements the [Catalog] interface for YouTube Music via proxy.
type YouTubeService struct {
	baseURL     string
	authFile    string
	authHeaders string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// YouTubeOption configures a [YouTubeService].
type YouTubeOption func(*YouTubeService)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) YouTubeOption {
	return func(y *YouTubeService) {
		if c != nil {
			y.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout. Zero or negative leaves the default.
func WithTimeout(d time.Duration) YouTubeOption {
	return func(y *YouTubeService) {
		if d > 0 {
			y.httpClient.Timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests to perSecond. Zero or negative disables pacing.
func WithRateLimit(perSecond float64) YouTubeOption {
	return func(y *YouTubeService) {
		if perSecond <= 0 {
			y.limiter = nil
			return
		}
		y.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string, opts ...YouTubeOption) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	y := &YouTubeService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication material for subsequent requests.
//
// Expects credentials["headers"] to contain a headers JSON object, or credentials["auth_file"] to contain a path
// the proxy can read. Inline headers win when both are present.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if raw, ok := credentials[CredentialHeaders]; ok && raw != "" {
		headers, err := shared.ParseAuthHeaders([]byte(raw))
		if err != nil {
			return err
		}
		encoded, err := headers.Encoded()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		y.authHeaders = encoded
		y.authFile = ""
		return nil
	}

	authFile, ok := credentials[CredentialAuthFile]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: expected %s or %s", shared.ErrMissingCredentials, CredentialHeaders, CredentialAuthFile)
	}

	y.authFile = authFile
	y.authHeaders = ""
	return nil
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	switch {
	case y.authHeaders != "":
		req.Header.Set("X-Auth-Headers", y.authHeaders)
	case y.authFile != "":
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// LibraryPlaylists retrieves all playlists for the authenticated user.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) LibraryPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var ytPlaylists []struct {
		PlaylistID  string `json:"playlistId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Count       int    `json:"count"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &ytPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(ytPlaylists))
	for i, ytp := range ytPlaylists {
		playlists[i] = models.Playlist{
			ID:          ytp.PlaylistID,
			Name:        ytp.Title,
			Description: ytp.Description,
			TrackCount:  ytp.Count,
		}
	}

	return playlists, nil
}

// CreatePlaylist creates a private playlist.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         title,
		Description:   description,
		PrivacyStatus: "PRIVATE",
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", err
	}
	if createResp.PlaylistID == "" {
		return "", fmt.Errorf("%w: create playlist returned no id", shared.ErrAPIRequest)
	}

	return createResp.PlaylistID, nil
}

// PlaylistTracks fetches the entries of a playlist.
//
// Calls GET /api/playlists/{id}?limit=N on the proxy. A limit of 0 omits the parameter.
func (y *YouTubeService) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]models.PlaylistTrack, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	var ytPlaylist struct {
		ID     string         `json:"id"`
		Tracks []YouTubeTrack `json:"tracks"`
	}
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, err
	}

	tracks := make([]models.PlaylistTrack, 0, len(ytPlaylist.Tracks))
	for _, ytt := range ytPlaylist.Tracks {
		track := models.PlaylistTrack{Title: ytt.Title, VideoID: ytt.VideoID}
		if len(ytt.Artists) > 0 {
			track.Artist = ytt.Artists[0].Name
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// Search queries the song catalog.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []models.SearchResult
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// AddPlaylistItems appends videoIDs to a playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error {
	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: videoIDs,
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return y.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}
