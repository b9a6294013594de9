package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/repositories"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistsView ViewState = iota
	TracksView
	StatsView
	ConfirmClearView
)

// Source is the read and clear surface of the cache that the browser needs. [repositories.Cache] implements it.
type Source interface {
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
	ListTracks(ctx context.Context) ([]models.Track, error)
	Stats(ctx context.Context) ([]repositories.TableStats, error)
	Clear(ctx context.Context) error
}

var _ Source = (*repositories.Cache)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	previous     ViewState
	source       Source
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	stats        []repositories.TableStats
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model reading from source.
func NewModel(ctx context.Context, source Source) *Model {
	m := &Model{
		ctx:    ctx,
		view:   PlaylistsView,
		source: source,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.playlistList = newList("Cached Playlists", nil)
	m.trackList = newList("Cached Tracks", nil)
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init loads the cache contents.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.view == ConfirmClearView {
			return m.handleConfirmKeys(msg)
		}
		if m.filtering() {
			return m.updateLists(msg)
		}
		return m.handleBrowseKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLibraryLoaded:
		lib := msg.data.(library)
		if lib.err != nil {
			m.err = lib.err
			return m, nil
		}
		m.err = nil
		m.stats = lib.stats
		m.playlistList.SetItems(playlistItems(lib.playlists))
		m.trackList.SetItems(trackItems(lib.tracks))
		m.status = fmt.Sprintf("%d playlists, %d tracks", len(lib.playlists), len(lib.tracks))
		return m, nil

	case MsgCacheCleared:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "cache cleared"
		return m, m.load()
	}
	return m, nil
}

// filtering reports whether the active list is capturing keystrokes for its filter prompt.
func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistsView:
		return m.playlistList.FilterState() == list.Filtering
	case TracksView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.view = (m.view + 1) % ConfirmClearView
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.clear):
		m.previous = m.view
		m.view = ConfirmClearView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = m.previous
		return m, m.clear()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = m.previous
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistsView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TracksView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		var lib library
		if lib.playlists, lib.err = m.source.ListPlaylists(m.ctx); lib.err != nil {
			return libraryLoadedMsg(lib)
		}
		if lib.tracks, lib.err = m.source.ListTracks(m.ctx); lib.err != nil {
			return libraryLoadedMsg(lib)
		}
		lib.stats, lib.err = m.source.Stats(m.ctx)
		return libraryLoadedMsg(lib)
	}
}

func (m *Model) clear() tea.Cmd {
	return func() tea.Msg {
		return cacheClearedMsg(m.source.Clear(m.ctx))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	var body string
	switch m.view {
	case PlaylistsView:
		body = m.playlistList.View()
	case TracksView:
		body = m.trackList.View()
	case StatsView:
		body = m.renderStats()
	case ConfirmClearView:
		return m.renderConfirm()
	}

	status := styles.help.Render(m.status)
	return fmt.Sprintf("%s\n%s\n\n%s", body, status, m.help.View(m.keys))
}

func (m *Model) renderStats() string {
	title := styles.title.Render("Cache Tables")

	var rows strings.Builder
	fmt.Fprintf(&rows, "%-16s %8s  %s\n", "TABLE", "ROWS", "NEWEST")
	for _, s := range m.stats {
		newest := "-"
		if !s.Newest.IsZero() {
			newest = s.Newest.Local().Format(time.DateTime)
		}
		fmt.Fprintf(&rows, "%-16s %8d  %s\n", s.Table, s.Rows, newest)
	}

	return fmt.Sprintf("%s\n%s", title, styles.table.Render(strings.TrimRight(rows.String(), "\n")))
}

func (m *Model) renderConfirm() string {
	title := styles.warn.Render("Delete every cached row?")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n\nThe next tool calls will go to Spotify.\n\n%s", title, helpView)
}
