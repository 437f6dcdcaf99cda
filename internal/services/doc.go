// Package services defines the [Catalog] interface for the remote music catalog and implements it for YouTube Music.
//
// # Catalog Interface
//
// A reconciliation run needs five operations from the catalog: list library playlists, create a playlist, fetch
// a playlist's entries, search songs, and append a batch of video IDs. [Catalog] names exactly those, so the
// reconciler can be driven by a fake in tests.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server wrapping ytmusicapi.
//
// The proxy handles YouTube Music authentication complexities. Credentials are forwarded on each request,
// either as a path in the X-Auth-File header or as base64 encoded headers JSON in X-Auth-Headers.
// Requests are paced by a token bucket ([rate.Limiter]) and bounded by the HTTP client's timeout.
//
// [ProxyClient] exposes the same proxy as raw GET/POST requests for diagnostics.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : Authenticate() called without auth material
//   - [shared.ErrInvalidCredentials] : inline headers JSON could not be parsed
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status, or undecodable body
//
// Non-2xx responses carry the proxy's "detail" message when present.
package services
