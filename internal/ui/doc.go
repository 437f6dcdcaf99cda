// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one reconciliation run:
//  1. [LoadingView] : Read and deduplicate the history store
//  2. [SongListView] : Browse the extracted songs
//  3. [ConfirmView] : Confirm the destination playlist
//  4. [SyncView] : Spinner and progress bar fed by pipeline progress updates
//  5. [ResultView] : Added, skipped and unmatched songs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Pipeline], providing non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
