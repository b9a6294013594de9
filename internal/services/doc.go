// Package services implements the remote facade over the Spotify Web API.
//
// [SpotifyService] implements [Catalog]. It issues JSON requests through an HTTP client that already carries the
// bearer credential (see the auth package), paces them with a token-bucket limiter, and translates Spotify
// responses into [models] entities:
//   - null playlist descriptions become ""
//   - null owner display names become "Unknown"
//   - null public flags become false
//   - null entries in saved-track listings are dropped
//
// Every failure, whether transport, non-2xx status or undecodable body, is returned as a remote API
// [shared.Error] whose message is "<operation>: <detail>" and whose StatusCode is set when a response arrived.
// There is no retry: the limiter delays requests, it never repeats them.
//
// Endpoints used:
//
//	GET    /search?type=track
//	GET    /me
//	GET    /me/tracks
//	GET    /me/playlists
//	POST   /users/{user_id}/playlists
//	POST   /playlists/{playlist_id}/tracks
//	DELETE /playlists/{playlist_id}/tracks
//	GET    /tracks/{id}
package services
