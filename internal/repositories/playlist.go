package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/resonance/internal/models"
)

// PlaylistRepository caches the user's playlists.
//
// Reads treat the table as a single snapshot: the snapshot is fresh while its most recently cached row is within
// [PlaylistTTL]. The cache does not model partial listings, so callers only consult it for the first page.
type PlaylistRepository struct {
	db  *sql.DB
	now Clock
}

// NewPlaylistRepository creates a PlaylistRepository with the given database connection and clock.
// A nil clock uses the wall clock.
func NewPlaylistRepository(db *sql.DB, now Clock) *PlaylistRepository {
	if now == nil {
		now = time.Now
	}
	return &PlaylistRepository{db: db, now: now}
}

// Snapshot returns every cached playlist ordered by name. ok is false when the table is empty or the newest row
// is older than [PlaylistTTL].
func (r *PlaylistRepository) Snapshot(ctx context.Context) (playlists []models.Playlist, ok bool, err error) {
	var newest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(cached_at) FROM playlists").Scan(&newest); err != nil {
		return nil, false, fmt.Errorf("failed to read playlist freshness: %w", err)
	}

	if !newest.Valid || isStale(r.now(), newest.Int64, PlaylistTTL) {
		return nil, false, nil
	}

	playlists, err = r.List(ctx)
	if err != nil {
		return nil, false, err
	}
	return playlists, true, nil
}

// PutAll caches playlists in one transaction, replacing rows with matching ids.
func (r *PlaylistRepository) PutAll(ctx context.Context, playlists []models.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}

	query := `
		INSERT OR REPLACE INTO playlists (id, name, description, track_count, uri, owner, public, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := r.now().Unix()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, p := range playlists {
			_, err := tx.ExecContext(ctx, query,
				p.ID,
				p.Name,
				p.Description,
				p.TrackCount,
				p.URI,
				p.Owner,
				p.Public,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to cache playlist %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// List returns every cached playlist ordered by name, regardless of freshness.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.Playlist, error) {
	query := `
		SELECT id, name, description, track_count, uri, owner, public
		FROM playlists
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TrackCount, &p.URI, &p.Owner, &p.Public); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}
