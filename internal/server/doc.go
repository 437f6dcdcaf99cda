// Package server exposes the reconciler over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps every route registered after it; the first one added runs outermost.
// [RequestLogger] and [Recoverer] are the two the service installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Several methods can share a path, HEAD
// falls back to GET, and other methods get 405 with an Allow header.
//
// # Upload Endpoint
//
// [UploadHandler] serves POST /upload. The multipart form carries:
//   - file: a .zip archive holding the history store under a top-level "db" directory
//   - headers_auth_json: catalog auth headers as a JSON string, or
//   - headers_auth_file: the same JSON uploaded as a file
//   - playlist: optional destination playlist title
//
// When neither auth field is present the handler falls back to the configured headers path.
// The archive is unpacked into a scratch directory that is removed when the request finishes.
//
// Successful runs answer 200 with the run report as JSON. Failures answer {"error": "..."} with a status picked
// by [StatusFor]: 400 for bad input, 500 for an unreadable store, 502 when the catalog fails.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
