package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/resonance/internal/formatter"
	"github.com/desertthunder/resonance/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	parts := []string{
		fmt.Sprintf("%d tracks", i.playlist.TrackCount),
		i.playlist.Owner,
		formatter.VisibilityString(i.playlist.Public),
	}
	if i.playlist.Description != "" {
		parts = append(parts, i.playlist.Description)
	}
	return strings.Join(parts, " • ")
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string {
	return i.track.Name + " " + formatter.JoinArtists(i.track.Artists)
}
func (i trackItem) Title() string { return i.track.Name }
func (i trackItem) Description() string {
	desc := formatter.JoinArtists(i.track.Artists)
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.DurationMs))
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}
