// Package models defines the entities that flow through a reconciliation run.
//
// Store side:
//   - [RawRecord] : one key/value pair read from the history store
//   - [DecodedValue] : a record value decoded as a JSON document or degraded to text
//   - [SongRef] : canonical title/artist pair, identified by its normalized key
//   - [SongSet] : deduplicated, immutable set of songs extracted from one store
//
// Catalog side:
//   - [Playlist], [PlaylistTrack] : destination playlist and its current entries
//   - [SearchResult] : raw catalog search candidate
//   - [MatchResult] : a resolved candidate with title, first artist and video ID
//
// Outcome side:
//   - [Outcome], [SongOutcome] : per-song classification
//   - [Report] : the run summary returned to the HTTP and CLI callers
//   - [Run] : persisted summary of a past run
package models
