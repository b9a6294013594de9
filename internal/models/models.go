package models

// Track is a song as returned by the remote catalog.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	URI        string   `json:"uri"`
	DurationMs int      `json:"durationMs"`
	Popularity int      `json:"popularity"`
}

// Playlist is playlist metadata. Description is "" and Owner is "Unknown" when the remote omits them.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"trackCount"`
	URI         string `json:"uri"`
	Owner       string `json:"owner"`
	Public      bool   `json:"public"`
}

// SearchResult is one page of tracks matching a query.
type SearchResult struct {
	Tracks []Track `json:"tracks"`
	Total  int     `json:"total"`
}

// TrackPage is one page of saved tracks.
type TrackPage struct {
	Tracks []Track `json:"tracks"`
	Total  int     `json:"total"`
}

// PlaylistPage is one page of playlists.
type PlaylistPage struct {
	Playlists []Playlist `json:"playlists"`
	Total     int        `json:"total"`
}

// PlaylistEdit is the result of adding or removing tracks. Exactly one of Added or Removed is set.
type PlaylistEdit struct {
	Success    bool   `json:"success"`
	Added      *int   `json:"added,omitempty"`
	Removed    *int   `json:"removed,omitempty"`
	PlaylistID string `json:"playlistId"`
}

// NewSearchResult builds a [SearchResult], replacing a nil slice with an empty one.
func NewSearchResult(tracks []Track, total int) SearchResult {
	if tracks == nil {
		tracks = []Track{}
	}
	return SearchResult{Tracks: tracks, Total: total}
}

// NewTrackPage builds a [TrackPage], replacing a nil slice with an empty one.
func NewTrackPage(tracks []Track, total int) TrackPage {
	if tracks == nil {
		tracks = []Track{}
	}
	return TrackPage{Tracks: tracks, Total: total}
}

// NewPlaylistPage builds a [PlaylistPage], replacing a nil slice with an empty one.
func NewPlaylistPage(playlists []Playlist, total int) PlaylistPage {
	if playlists == nil {
		playlists = []Playlist{}
	}
	return PlaylistPage{Playlists: playlists, Total: total}
}

// Added reports n tracks added to playlistID.
func Added(playlistID string, n int) PlaylistEdit {
	return PlaylistEdit{Success: true, Added: &n, PlaylistID: playlistID}
}

// Removed reports n tracks removed from playlistID.
func Removed(playlistID string, n int) PlaylistEdit {
	return PlaylistEdit{Success: true, Removed: &n, PlaylistID: playlistID}
}
