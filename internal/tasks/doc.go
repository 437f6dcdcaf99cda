// Package tasks reconciles extracted recognition history into a catalog playlist with real-time progress reporting.
//
// # Core Operations
//
//  1. [Matcher.Match] : resolve one song
//     - Issues a single "{title} - {artist}" search and trusts the top candidate
//     - Any failure becomes [shared.ErrNoMatch] for that song only
//     - Consults an optional [MatchCache] first
//
//  2. [Reconciler.Reconcile] : update the destination playlist
//     - Finds the playlist by case-insensitive title, or creates it
//     - Seeds a [TrackIndex] from up to ExistingLimit current entries
//     - Matches songs on a bounded worker pool, then decides in sorted key order
//     - Appends every new video ID in exactly one call
//
//  3. [Pipeline.Run] : store to playlist
//     - Reads and decodes the LevelDB store, closing it before any remote call
//     - Extracts the deduplicated song set
//     - Reconciles and records the run through an optional [RunRecorder]
//
// # Determinism
//
// Searches may run concurrently, but index claims happen in one sequential pass ordered by normalized key,
// so the song that wins a contested identity does not depend on scheduling.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
