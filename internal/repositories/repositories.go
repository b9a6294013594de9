package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/resonance/internal/models"
)

// Time-to-live per entity kind.
const (
	SearchTTL   = 5 * time.Minute
	TrackTTL    = 24 * time.Hour
	PlaylistTTL = 10 * time.Minute
)

// Clock returns the current time. Tests substitute a fixed clock to probe TTL boundaries.
type Clock func() time.Time

// dbtx is satisfied by both [sql.DB] and [sql.Tx].
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isStale reports whether a row cached at cachedAt (epoch seconds) has outlived ttl.
func isStale(now time.Time, cachedAt int64, ttl time.Duration) bool {
	return now.Unix()-cachedAt > int64(ttl/time.Second)
}

// withTx runs fn inside a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Option configures a [Cache].
type Option func(*Cache)

// WithClock replaces the wall clock used for both writes and staleness checks.
func WithClock(c Clock) Option {
	return func(cache *Cache) {
		if c != nil {
			cache.now = c
		}
	}
}

// Cache groups the per-kind repositories over one database handle and clock.
type Cache struct {
	db  *sql.DB
	now Clock

	Tracks    *TrackRepository
	Playlists *PlaylistRepository
	Searches  *SearchRepository
}

// NewCache creates a Cache on db. The handle must already have migrations applied.
func NewCache(db *sql.DB, opts ...Option) *Cache {
	c := &Cache{db: db, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	clock := func() time.Time { return c.now() }
	c.Tracks = NewTrackRepository(db, clock)
	c.Playlists = NewPlaylistRepository(db, clock)
	c.Searches = NewSearchRepository(db, clock)
	return c
}

// StoreSearch caches a search page under key and every track it contains, in one transaction.
func (c *Cache) StoreSearch(ctx context.Context, key string, result models.SearchResult) error {
	now := c.now()
	return withTx(ctx, c.db, func(tx *sql.Tx) error {
		if err := putSearch(ctx, tx, key, result, now); err != nil {
			return err
		}
		for _, track := range result.Tracks {
			if err := putTrack(ctx, tx, track, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// TableStats summarizes one cache table.
type TableStats struct {
	Table  string
	Rows   int
	Newest time.Time // zero when the table is empty
}

// cacheTables lists every table holding cached rows, children before parents.
var cacheTables = []string{"playlist_tracks", "search_cache", "playlists", "tracks"}

// Stats returns row counts and the newest cached_at for each cache table.
func (c *Cache) Stats(ctx context.Context) ([]TableStats, error) {
	stats := make([]TableStats, 0, len(cacheTables))
	for _, table := range cacheTables {
		var (
			rows   int
			newest sql.NullInt64
		)
		query := fmt.Sprintf("SELECT COUNT(*), MAX(cached_at) FROM %s", table)
		if err := c.db.QueryRowContext(ctx, query).Scan(&rows, &newest); err != nil {
			return nil, fmt.Errorf("failed to read stats for %s: %w", table, err)
		}

		s := TableStats{Table: table, Rows: rows}
		if newest.Valid {
			s.Newest = time.Unix(newest.Int64, 0)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// Clear deletes every cached row in one transaction.
func (c *Cache) Clear(ctx context.Context) error {
	return withTx(ctx, c.db, func(tx *sql.Tx) error {
		for _, table := range cacheTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ListTracks returns every cached track regardless of age.
func (c *Cache) ListTracks(ctx context.Context) ([]models.Track, error) {
	return c.Tracks.List(ctx)
}

// ListPlaylists returns every cached playlist regardless of age.
func (c *Cache) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return c.Playlists.List(ctx)
}
