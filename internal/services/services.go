// package services defines interface Catalog for the remote music catalog
//
// YouTube Music (via proxy)
package services

import (
	"context"

	"github.com/desertthunder/shzx/internal/models"
)

// Catalog is the remote music catalog a reconciliation run searches and appends to.
type Catalog interface {
	// Authenticate configures the credentials sent with every subsequent request.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// LibraryPlaylists lists the playlists in the authenticated user's library.
	LibraryPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates an empty playlist and returns its ID.
	CreatePlaylist(ctx context.Context, title, description string) (string, error)

	// PlaylistTracks fetches up to limit entries of a playlist. A limit of 0 fetches all.
	PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]models.PlaylistTrack, error)

	// Search returns song candidates for a free-text query, best first.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)

	// AddPlaylistItems appends videoIDs to a playlist in one request.
	AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) error

	// Name returns the name of the catalog (e.g., "YouTube Music")
	Name() string
}

// Credential keys understood by [Catalog.Authenticate].
const (
	CredentialAuthFile = "auth_file" // path to a headers JSON file readable by the proxy
	CredentialHeaders  = "headers"   // headers JSON object, forwarded inline
)
