// Package tools exposes the music catalog as Model Context Protocol tools.
//
// Each tool is a pair of functions: XTool describes the tool and XHandler builds its typed handler over [Deps].
// Read tools consult the cache in [repositories.Cache] first and fall back to the remote [services.Catalog],
// writing every remote result back before returning it:
//
//	search             search cache (5m), then remote; result and tracks cached together
//	get_saved_tracks   always remote; tracks cached
//	get_playlists      playlist snapshot (10m) at offset 0 only, then remote; playlists cached
//	get_track          track cache (24h), then remote
//
// Write tools (create_playlist, add_to_playlist, remove_from_playlist) go straight to the remote catalog.
//
// Successful calls return the payload as indented JSON text plus structured content. Every failure, including
// argument validation, is returned as an error result whose text starts with "Error: ".
package tools
