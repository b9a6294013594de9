package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/desertthunder/resonance/internal/formatter"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/repositories"
	"github.com/desertthunder/resonance/internal/services"
	"github.com/desertthunder/resonance/internal/shared"
)

// Deps are the collaborators every handler reads through.
type Deps struct {
	Catalog services.Catalog
	Cache   *repositories.Cache
	Logger  *log.Logger
}

func (d Deps) logger(tool string) *log.Logger {
	l := d.Logger
	if l == nil {
		l = shared.NewLogger(nil)
	}
	return shared.WithLogger(l, "tool", tool)
}

// PageInput represents optional pagination for listing tools.
type PageInput struct {
	Limit  *int `json:"limit,omitempty" jsonschema:"maximum number of items to return (1-50)"`
	Offset *int `json:"offset,omitempty" jsonschema:"index of the first item to return"`
}

// SearchInput represents the MCP tool input for a track search.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"search query"`
	Limit  *int   `json:"limit,omitempty" jsonschema:"maximum number of tracks to return (1-50)"`
	Offset *int   `json:"offset,omitempty" jsonschema:"index of the first track to return"`
}

// CreatePlaylistInput represents the MCP tool input for creating a playlist.
type CreatePlaylistInput struct {
	Name        string `json:"name" jsonschema:"playlist name"`
	Description string `json:"description,omitempty" jsonschema:"playlist description"`
	Public      bool   `json:"public,omitempty" jsonschema:"whether the playlist is public"`
}

// PlaylistTracksInput represents the MCP tool input for adding or removing playlist tracks.
type PlaylistTracksInput struct {
	PlaylistID string   `json:"playlistId" jsonschema:"Spotify playlist id"`
	TrackURIs  []string `json:"trackUris" jsonschema:"Spotify track URIs such as spotify:track:4uLU6hMCjMI75M1A2tKUQC"`
}

// TrackInput represents the MCP tool input for fetching one track.
type TrackInput struct {
	ID string `json:"id" jsonschema:"Spotify track id"`
}

// SearchTool defines the MCP tool schema for track search.
func SearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search",
		Description: "Search Spotify for tracks",
		InputSchema: inputSchema[SearchInput](paginationDefaults),
	}
}

// SavedTracksTool defines the MCP tool schema for the user's saved tracks.
func SavedTracksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_saved_tracks",
		Description: "List tracks saved in the user's library",
		InputSchema: inputSchema[PageInput](paginationDefaults),
	}
}

// PlaylistsTool defines the MCP tool schema for the user's playlists.
func PlaylistsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_playlists",
		Description: "List the user's playlists",
		InputSchema: inputSchema[PageInput](paginationDefaults),
	}
}

// CreatePlaylistTool defines the MCP tool schema for playlist creation.
func CreatePlaylistTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_playlist",
		Description: "Create a playlist owned by the user",
		InputSchema: inputSchema[CreatePlaylistInput](map[string]any{"description": "", "public": false}),
	}
}

// AddToPlaylistTool defines the MCP tool schema for adding tracks.
func AddToPlaylistTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add_to_playlist",
		Description: "Add tracks to a playlist",
		InputSchema: inputSchema[PlaylistTracksInput](nil),
	}
}

// RemoveFromPlaylistTool defines the MCP tool schema for removing tracks.
func RemoveFromPlaylistTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "remove_from_playlist",
		Description: "Remove every occurrence of tracks from a playlist",
		InputSchema: inputSchema[PlaylistTracksInput](nil),
	}
}

// TrackTool defines the MCP tool schema for fetching one track.
func TrackTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_track",
		Description: "Get a single track by id",
		InputSchema: inputSchema[TrackInput](nil),
	}
}

// respond renders v as the text content of a successful result.
func respond[T any](v T) (*mcp.CallToolResult, T, error) {
	text, err := formatter.JSON(v)
	if err != nil {
		return fail[T](err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, v, nil
}

// fail turns err into an error result. The SDK reports the error text with IsError set.
func fail[T any](err error) (*mcp.CallToolResult, T, error) {
	var zero T
	return nil, zero, fmt.Errorf("Error: %w", err)
}

// SearchHandler executes a track search, serving repeated pages from the search cache.
func SearchHandler(deps Deps) mcp.ToolHandlerFor[SearchInput, models.SearchResult] {
	logger := deps.logger("search")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, models.SearchResult, error) {
		if strings.TrimSpace(input.Query) == "" {
			return fail[models.SearchResult](missingArgument("query"))
		}
		limit, offset, err := page(input.Limit, input.Offset)
		if err != nil {
			return fail[models.SearchResult](err)
		}

		key := repositories.SearchKey(input.Query, limit, offset)
		cached, ok, err := deps.Cache.Searches.Get(ctx, key)
		if err != nil {
			return fail[models.SearchResult](err)
		}
		if ok {
			logger.Debug("cache hit", "key", key)
			return respond(cached)
		}

		result, err := deps.Catalog.Search(ctx, input.Query, limit, offset)
		if err != nil {
			logger.Warn("remote search failed", "key", key, "error", err)
			return fail[models.SearchResult](err)
		}

		if err := deps.Cache.StoreSearch(ctx, key, result); err != nil {
			return fail[models.SearchResult](err)
		}
		logger.Debug("cached search", "key", key, "tracks", len(result.Tracks))
		return respond(result)
	}
}

// SavedTracksHandler lists saved tracks from the remote catalog and caches each track.
func SavedTracksHandler(deps Deps) mcp.ToolHandlerFor[PageInput, models.TrackPage] {
	logger := deps.logger("get_saved_tracks")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PageInput) (*mcp.CallToolResult, models.TrackPage, error) {
		limit, offset, err := page(input.Limit, input.Offset)
		if err != nil {
			return fail[models.TrackPage](err)
		}

		result, err := deps.Catalog.SavedTracks(ctx, limit, offset)
		if err != nil {
			logger.Warn("remote saved tracks failed", "error", err)
			return fail[models.TrackPage](err)
		}

		if err := deps.Cache.Tracks.PutAll(ctx, result.Tracks); err != nil {
			return fail[models.TrackPage](err)
		}
		return respond(result)
	}
}

// PlaylistsHandler lists playlists. The first page is answered from the cached snapshot while it is fresh;
// later pages always go to the remote catalog.
func PlaylistsHandler(deps Deps) mcp.ToolHandlerFor[PageInput, models.PlaylistPage] {
	logger := deps.logger("get_playlists")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PageInput) (*mcp.CallToolResult, models.PlaylistPage, error) {
		limit, offset, err := page(input.Limit, input.Offset)
		if err != nil {
			return fail[models.PlaylistPage](err)
		}

		if offset == 0 {
			snapshot, ok, err := deps.Cache.Playlists.Snapshot(ctx)
			if err != nil {
				return fail[models.PlaylistPage](err)
			}
			if ok {
				logger.Debug("cache hit", "playlists", len(snapshot))
				return respond(models.NewPlaylistPage(snapshot[:min(limit, len(snapshot))], len(snapshot)))
			}
		}

		result, err := deps.Catalog.Playlists(ctx, limit, offset)
		if err != nil {
			logger.Warn("remote playlists failed", "offset", offset, "error", err)
			return fail[models.PlaylistPage](err)
		}

		if err := deps.Cache.Playlists.PutAll(ctx, result.Playlists); err != nil {
			return fail[models.PlaylistPage](err)
		}
		return respond(result)
	}
}

// CreatePlaylistHandler creates a playlist for the current user.
func CreatePlaylistHandler(deps Deps) mcp.ToolHandlerFor[CreatePlaylistInput, models.Playlist] {
	logger := deps.logger("create_playlist")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreatePlaylistInput) (*mcp.CallToolResult, models.Playlist, error) {
		if strings.TrimSpace(input.Name) == "" {
			return fail[models.Playlist](missingArgument("name"))
		}

		playlist, err := deps.Catalog.CreatePlaylist(ctx, input.Name, input.Description, input.Public)
		if err != nil {
			logger.Warn("remote create failed", "name", input.Name, "error", err)
			return fail[models.Playlist](err)
		}
		logger.Info("created playlist", "id", playlist.ID)
		return respond(playlist)
	}
}

func validatePlaylistTracks(input PlaylistTracksInput) error {
	if strings.TrimSpace(input.PlaylistID) == "" {
		return missingArgument("playlistId")
	}
	if len(input.TrackURIs) == 0 {
		return invalidArgument("trackUris must contain at least one URI")
	}
	return nil
}

// AddToPlaylistHandler appends tracks to a playlist.
func AddToPlaylistHandler(deps Deps) mcp.ToolHandlerFor[PlaylistTracksInput, models.PlaylistEdit] {
	logger := deps.logger("add_to_playlist")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlaylistTracksInput) (*mcp.CallToolResult, models.PlaylistEdit, error) {
		if err := validatePlaylistTracks(input); err != nil {
			return fail[models.PlaylistEdit](err)
		}

		if err := deps.Catalog.AddTracks(ctx, input.PlaylistID, input.TrackURIs); err != nil {
			logger.Warn("remote add failed", "playlist", input.PlaylistID, "error", err)
			return fail[models.PlaylistEdit](err)
		}
		return respond(models.Added(input.PlaylistID, len(input.TrackURIs)))
	}
}

// RemoveFromPlaylistHandler removes tracks from a playlist.
func RemoveFromPlaylistHandler(deps Deps) mcp.ToolHandlerFor[PlaylistTracksInput, models.PlaylistEdit] {
	logger := deps.logger("remove_from_playlist")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlaylistTracksInput) (*mcp.CallToolResult, models.PlaylistEdit, error) {
		if err := validatePlaylistTracks(input); err != nil {
			return fail[models.PlaylistEdit](err)
		}

		if err := deps.Catalog.RemoveTracks(ctx, input.PlaylistID, input.TrackURIs); err != nil {
			logger.Warn("remote remove failed", "playlist", input.PlaylistID, "error", err)
			return fail[models.PlaylistEdit](err)
		}
		return respond(models.Removed(input.PlaylistID, len(input.TrackURIs)))
	}
}

// TrackHandler fetches one track, serving it from the track cache while fresh.
func TrackHandler(deps Deps) mcp.ToolHandlerFor[TrackInput, models.Track] {
	logger := deps.logger("get_track")
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TrackInput) (*mcp.CallToolResult, models.Track, error) {
		if strings.TrimSpace(input.ID) == "" {
			return fail[models.Track](missingArgument("id"))
		}

		cached, ok, err := deps.Cache.Tracks.Get(ctx, input.ID)
		if err != nil {
			return fail[models.Track](err)
		}
		if ok {
			logger.Debug("cache hit", "id", input.ID)
			return respond(cached)
		}

		track, err := deps.Catalog.Track(ctx, input.ID)
		if err != nil {
			logger.Warn("remote track failed", "id", input.ID, "error", err)
			return fail[models.Track](err)
		}

		if err := deps.Cache.Tracks.Put(ctx, track); err != nil {
			return fail[models.Track](err)
		}
		return respond(track)
	}
}
