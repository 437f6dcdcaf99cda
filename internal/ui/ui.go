package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SongListView
	ConfirmView
	SyncView
	ResultView
)

const maxBarWidth = 60

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	pipeline     *tasks.Pipeline
	request      tasks.SyncRequest
	width        int
	height       int
	songList     list.Model
	songs        *models.SongSet
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan syncComplete
	progress     tasks.ProgressUpdate
	report       *models.Report
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that extracts req.StorePath and syncs it with pipeline.
func NewModel(ctx context.Context, pipeline *tasks.Pipeline, req tasks.SyncRequest) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		pipeline: pipeline,
		request:  req,
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Report returns the report of the last finished run, if any.
func (m *Model) Report() *models.Report { return m.report }

// Err returns the error that ended the last extraction or run, if any.
func (m *Model) Err() error { return m.err }

// Init starts the spinner and reads the history store.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.extract())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		if m.songs != nil {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSongsExtracted:
		data := msg.data.(songsExtracted)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.songs = data.songs
		m.songList = list.New(songItems(data.songs), list.NewDefaultDelegate(), 0, 0)
		m.songList.Title = fmt.Sprintf("Shazam history (%d songs)", data.songs.Len())
		m.songList.SetSize(m.width-4, m.height-8)
		m.view = SongListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.doneChan)

	case MsgSyncComplete:
		data := msg.data.(syncComplete)
		m.report = data.report
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Reading history store %s", m.spinner.View(), m.request.StorePath)
	case SongListView:
		return m.renderSongList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.sync):
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startSync()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = SongListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = SongListView
		m.report = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != SongListView {
		return m, nil
	}
	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) extract() tea.Cmd {
	ctx, pipeline, path := m.ctx, m.pipeline, m.request.StorePath
	return func() tea.Msg {
		songs, err := pipeline.Extract(ctx, path, nil)
		return songsExtractedMsg(songs, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.doneChan = make(chan syncComplete, 1)

	updates, done := m.progressChan, m.doneChan
	ctx, pipeline, songs, req := m.ctx, m.pipeline, m.songs, m.request

	go func() {
		report, err := pipeline.Sync(ctx, songs, req, updates)
		done <- syncComplete{report: report, err: err}
		close(updates)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(updates, done))
}

// waitForProgress delivers the next progress update, or the run result once updates are closed.
func waitForProgress(updates <-chan tasks.ProgressUpdate, done <-chan syncComplete) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-updates; ok {
			return progressUpdateMsg(update)
		}
		res := <-done
		return syncCompleteMsg(res.report, res.err)
	}
}

// percent maps a progress update onto the whole run, with catalog searches taking most of the bar.
func percent(u tasks.ProgressUpdate) float64 {
	switch u.Phase {
	case tasks.ExtractSongs:
		return 0.05
	case tasks.ResolvePlaylist:
		return 0.10
	case tasks.FetchExisting:
		return 0.15
	case tasks.SearchTracks:
		if u.Total == 0 {
			return 0.15
		}
		return 0.15 + 0.75*float64(u.Step)/float64(u.Total)
	case tasks.AppendTracks:
		return 0.95
	case tasks.RecordRun, tasks.Done:
		return 1
	default:
		return 0
	}
}

func (m *Model) renderSongList() string {
	helpView := m.help.ShortHelpView(m.keys.forView(m.view))
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync to '%s' on YouTube Music?", m.pipeline.PlaylistTitle(m.request.PlaylistTitle)))
	info := fmt.Sprintf("\nSongs: %d\n", m.songs.Len())
	helpView := m.help.ShortHelpView(m.keys.forView(m.view))
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing history")

	phase := m.progress.Message
	if phase == "" {
		phase = "Starting..."
	}
	return fmt.Sprintf("%s\n\n%s %s\n\n%s", title, m.spinner.View(), phase, m.bar.ViewAs(percent(m.progress)))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.forView(m.view))

	if m.report == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Sync failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	r := m.report
	var title string
	if m.err != nil {
		title = styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err))
	} else {
		title = styles.ok.Render("✓ Sync Complete!")
	}

	existing := fmt.Sprintf("%d", r.ExistingCount)
	if r.ExistingTruncated {
		existing += " (limit reached)"
	}
	info := styles.box.Render(fmt.Sprintf(
		"Playlist: %s (%s)\nExtracted: %d\nAlready in playlist: %s\nAdded: %d  Skipped: %d  Failed: %d",
		r.PlaylistTitle, r.PlaylistID, r.TotalExtracted, existing, r.SongsAdded, r.SkippedCount, r.FailedCount,
	))

	var b strings.Builder
	for _, section := range []struct {
		kind  string
		songs []string
	}{
		{"added", r.Added},
		{"skipped", r.Skipped},
		{"failed", r.Failed},
	} {
		for _, s := range section.songs {
			fmt.Fprintf(&b, "\n  %s %s", styles.mark(section.kind), s)
		}
	}
	if r.FailedCount > 0 {
		b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("No catalog match for %d songs", r.FailedCount)))
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, info, b.String(), helpView)
}
