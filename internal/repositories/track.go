package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/resonance/internal/models"
)

// TrackRepository caches tracks by id.
type TrackRepository struct {
	db  *sql.DB
	now Clock
}

// NewTrackRepository creates a TrackRepository with the given database connection and clock.
// A nil clock uses the wall clock.
func NewTrackRepository(db *sql.DB, now Clock) *TrackRepository {
	if now == nil {
		now = time.Now
	}
	return &TrackRepository{db: db, now: now}
}

const upsertTrack = `
	INSERT OR REPLACE INTO tracks (id, name, artists, album, uri, duration_ms, popularity, cached_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// putTrack replaces the row for track.ID, stamping it with now.
func putTrack(ctx context.Context, db dbtx, track models.Track, now time.Time) error {
	artists, err := json.Marshal(nonNil(track.Artists))
	if err != nil {
		return fmt.Errorf("failed to encode artists for track %s: %w", track.ID, err)
	}

	_, err = db.ExecContext(ctx, upsertTrack,
		track.ID,
		track.Name,
		string(artists),
		track.Album,
		track.URI,
		track.DurationMs,
		track.Popularity,
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache track %s: %w", track.ID, err)
	}
	return nil
}

// Get returns the cached track with id. ok is false when no row exists or the row is older than [TrackTTL].
func (r *TrackRepository) Get(ctx context.Context, id string) (track models.Track, ok bool, err error) {
	query := `
		SELECT id, name, artists, album, uri, duration_ms, popularity, cached_at
		FROM tracks
		WHERE id = ?
	`

	track, cachedAt, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Track{}, false, nil
	}
	if err != nil {
		return models.Track{}, false, err
	}

	if isStale(r.now(), cachedAt, TrackTTL) {
		return models.Track{}, false, nil
	}
	return track, true, nil
}

// Put caches a single track.
func (r *TrackRepository) Put(ctx context.Context, track models.Track) error {
	return putTrack(ctx, r.db, track, r.now())
}

// PutAll caches tracks in one transaction: either every row is written or none is.
func (r *TrackRepository) PutAll(ctx context.Context, tracks []models.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	now := r.now()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, track := range tracks {
			if err := putTrack(ctx, tx, track, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns every cached track ordered by name, regardless of freshness.
func (r *TrackRepository) List(ctx context.Context) ([]models.Track, error) {
	query := `
		SELECT id, name, artists, album, uri, duration_ms, popularity, cached_at
		FROM tracks
		ORDER BY name COLLATE NOCASE, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		track, _, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTrack scans one tracks row, returning the track and its cached_at.
func scanTrack(row scanner) (models.Track, int64, error) {
	var (
		track    models.Track
		artists  string
		cachedAt int64
	)

	err := row.Scan(
		&track.ID,
		&track.Name,
		&artists,
		&track.Album,
		&track.URI,
		&track.DurationMs,
		&track.Popularity,
		&cachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return track, 0, err
	}
	if err != nil {
		return track, 0, fmt.Errorf("failed to scan track: %w", err)
	}

	if err := json.Unmarshal([]byte(artists), &track.Artists); err != nil {
		return track, 0, fmt.Errorf("failed to decode artists for track %s: %w", track.ID, err)
	}
	track.Artists = nonNil(track.Artists)
	return track, cachedAt, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
