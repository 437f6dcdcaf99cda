// Package repositories implements SQLite persistence for reconciliation history.
//
// Key Implementations:
//   - [RunRepository] : run summaries and per-song outcomes, newest first
//   - [MatchCacheRepository] : resolved catalog matches keyed by normalized song identity
//
// Both are optional. The CLI and server only construct them when database.path is configured.
// Schema changes live in shared/sql and are applied by [shared.RunMigrations].
package repositories
