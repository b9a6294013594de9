package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/repositories"
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
	MsgLibraryLoaded MsgKind = iota
	MsgCacheCleared
)

// library is everything a reload reads from the store.
type library struct {
	playlists []models.Playlist
	tracks    []models.Track
	stats     []repositories.TableStats
	err       error
}

// libraryLoadedMsg is the constructor for [MsgLibraryLoaded]
func libraryLoadedMsg(lib library) Msg {
	return Msg{kind: MsgLibraryLoaded, data: lib}
}

// cacheClearedMsg is the constructor for [MsgCacheCleared]
func cacheClearedMsg(err error) Msg {
	return Msg{kind: MsgCacheCleared, data: err}
}
