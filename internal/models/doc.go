// Package models defines the catalog entities exchanged between the Spotify facade, the cache and the MCP tools.
//
// Entities:
//   - [Track] : a song with its ordered artist names and album
//   - [Playlist] : playlist metadata with owner display name and visibility
//
// Page types wrap entity slices with the remote total:
//   - [SearchResult] : tracks matching a query
//   - [TrackPage] : a page of the user's saved tracks
//   - [PlaylistPage] : a page of the user's playlists
//
// [PlaylistEdit] reports the outcome of adding or removing playlist items.
//
// Slices in page types are never nil so that empty pages serialize as [] rather than null.
package models
