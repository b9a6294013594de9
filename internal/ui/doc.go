// Package ui implements an interactive browser for the local cache using bubbletea's Elm architecture.
//
// The TUI has three views over a [Source]:
//  1. [PlaylistsView] : Browse cached playlists
//  2. [TracksView] : Browse cached tracks
//  3. [StatsView] : Row counts and newest fetch time per cache table
//
// tab cycles through the views, r reloads from the store, and x asks for confirmation before clearing every cached
// row. Rows are shown regardless of age; staleness only matters to the MCP tools.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving store results via the Msg union type.
package ui
