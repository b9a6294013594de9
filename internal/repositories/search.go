package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/resonance/internal/models"
)

// SearchKey serializes a search request into its cache key. The query is used verbatim, so pages of the same
// query and differently cased queries are distinct entries.
func SearchKey(query string, limit, offset int) string {
	return query + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

// SearchRepository caches search result pages.
type SearchRepository struct {
	db  *sql.DB
	now Clock
}

// NewSearchRepository creates a SearchRepository with the given database connection and clock.
// A nil clock uses the wall clock.
func NewSearchRepository(db *sql.DB, now Clock) *SearchRepository {
	if now == nil {
		now = time.Now
	}
	return &SearchRepository{db: db, now: now}
}

// Get returns the page cached under key. ok is false when no row exists or it is older than [SearchTTL].
func (r *SearchRepository) Get(ctx context.Context, key string) (result models.SearchResult, ok bool, err error) {
	var (
		payload  string
		cachedAt int64
	)

	err = r.db.QueryRowContext(ctx, "SELECT results, cached_at FROM search_cache WHERE query = ?", key).
		Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("failed to read search cache: %w", err)
	}

	if isStale(r.now(), cachedAt, SearchTTL) {
		return result, false, nil
	}

	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return result, false, fmt.Errorf("failed to decode cached search %q: %w", key, err)
	}
	return models.NewSearchResult(result.Tracks, result.Total), true, nil
}

// Put caches a page under key without touching the tracks table. Use [Cache.StoreSearch] to write both.
func (r *SearchRepository) Put(ctx context.Context, key string, result models.SearchResult) error {
	return putSearch(ctx, r.db, key, result, r.now())
}

func putSearch(ctx context.Context, db dbtx, key string, result models.SearchResult, now time.Time) error {
	payload, err := json.Marshal(models.NewSearchResult(result.Tracks, result.Total))
	if err != nil {
		return fmt.Errorf("failed to encode search results: %w", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT OR REPLACE INTO search_cache (query, results, cached_at) VALUES (?, ?, ?)",
		key, string(payload), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache search %q: %w", key, err)
	}
	return nil
}
