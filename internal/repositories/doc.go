// Package repositories implements the staleness-aware SQLite cache for catalog entities.
//
// Each entity kind has its own repository and time-to-live:
//   - [TrackRepository] : tracks by id, fresh for [TrackTTL]
//   - [PlaylistRepository] : the user's playlists as one snapshot, fresh for [PlaylistTTL]
//   - [SearchRepository] : search result pages keyed by [SearchKey], fresh for [SearchTTL]
//
// Rows carry cached_at in epoch seconds. Staleness is decided at read time only: a row is stale when
// now - cached_at exceeds the TTL, so a row exactly TTL seconds old is still served. Writes are upserts that
// replace the whole row and reset cached_at. Batch writes run in a single transaction.
//
// [Cache] bundles the repositories behind one clock and adds the cross-table operations: storing a search page
// together with its tracks, [Cache.Stats] and [Cache.Clear].
package repositories
