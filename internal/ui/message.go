package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSongsExtracted MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

type songsExtracted struct {
	songs *models.SongSet
	err   error
}

type syncComplete struct {
	report *models.Report
	err    error
}

// songsExtractedMsg is the constructor for [MsgSongsExtracted]
func songsExtractedMsg(songs *models.SongSet, err error) Msg {
	return Msg{kind: MsgSongsExtracted, data: songsExtracted{songs, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(report *models.Report, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncComplete{report, err}}
}
