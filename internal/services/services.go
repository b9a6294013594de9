package services

import (
	"context"

	"github.com/desertthunder/resonance/internal/models"
)

// Operation names prefix every [shared.RemoteAPIError] raised by a [Catalog].
const (
	OpSearch         = "Search failed"
	OpSavedTracks    = "Failed to get saved tracks"
	OpPlaylists      = "Failed to get playlists"
	OpCreatePlaylist = "Failed to create playlist"
	OpAddTracks      = "Failed to add tracks to playlist"
	OpRemoveTracks   = "Failed to remove tracks from playlist"
	OpTrack          = "Failed to get track"
)

// Catalog is the remote facade the MCP tools call on a cache miss.
//
// Every method makes exactly one remote attempt per call (CreatePlaylist also resolves the current user first)
// and reports failures as a remote API [shared.Error] whose message starts with the operation name.
type Catalog interface {
	// Search finds tracks matching query.
	Search(ctx context.Context, query string, limit, offset int) (models.SearchResult, error)

	// SavedTracks lists the user's saved tracks. Entries the remote reports as null are dropped.
	SavedTracks(ctx context.Context, limit, offset int) (models.TrackPage, error)

	// Playlists lists the user's playlists.
	Playlists(ctx context.Context, limit, offset int) (models.PlaylistPage, error)

	// CreatePlaylist creates a playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (models.Playlist, error)

	// AddTracks appends track URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// RemoveTracks removes every occurrence of the track URIs from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, uris []string) error

	// Track fetches a single track by id.
	Track(ctx context.Context, id string) (models.Track, error)
}
