package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testClock is a settable clock starting at a fixed instant.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sampleTrack(id, name string) models.Track {
	return models.Track{
		ID:         id,
		Name:       name,
		Artists:    []string{"Daft Punk", "Pharrell Williams"},
		Album:      "Random Access Memories",
		URI:        "spotify:track:" + id,
		DurationMs: 369000,
		Popularity: 82,
	}
}

// failInsert makes any insert into table with the given id abort the statement.
func failInsert(t *testing.T, db *sql.DB, table, id string) {
	t.Helper()
	trigger := fmt.Sprintf(`
		CREATE TRIGGER fail_%[1]s BEFORE INSERT ON %[1]s
		WHEN NEW.id = '%[2]s'
		BEGIN
			SELECT RAISE(ABORT, 'simulated failure');
		END
	`, table, id)
	if _, err := db.Exec(trigger); err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return count
}

func samplePlaylist(id, name string) models.Playlist {
	return models.Playlist{
		ID:         id,
		Name:       name,
		TrackCount: 3,
		URI:        "spotify:playlist:" + id,
		Owner:      "owner",
	}
}

func TestIsStale(t *testing.T) {
	now := time.Unix(1000, 0)
	tc := []struct {
		name     string
		cachedAt int64
		ttl      time.Duration
		want     bool
	}{
		{name: "just written", cachedAt: 1000, ttl: SearchTTL, want: false},
		{name: "exactly ttl old", cachedAt: 700, ttl: SearchTTL, want: false},
		{name: "one second past ttl", cachedAt: 699, ttl: SearchTTL, want: true},
		{name: "written in the future", cachedAt: 2000, ttl: SearchTTL, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStale(now, tt.cachedAt, tt.ttl); got != tt.want {
				t.Errorf("isStale(%d, %v) = %v, want %v", tt.cachedAt, tt.ttl, got, tt.want)
			}
		})
	}
}

func TestSearchKey(t *testing.T) {
	if got := SearchKey("daft punk", 20, 0); got != "daft punk:20:0" {
		t.Errorf("unexpected key %q", got)
	}
	if SearchKey("abc", 20, 0) == SearchKey("abc", 20, 20) {
		t.Error("pages of the same query must have distinct keys")
	}
	if SearchKey("ABC", 20, 0) == SearchKey("abc", 20, 0) {
		t.Error("queries must not be normalized")
	}
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss On Empty", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		_, ok, err := cache.Tracks.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("miss should not be an error: %v", err)
		}
		if ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("Put And Get", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		want := sampleTrack("t1", "Get Lucky")
		if err := cache.Tracks.Put(ctx, want); err != nil {
			t.Fatalf("failed to put track: %v", err)
		}

		got, ok, err := cache.Tracks.Get(ctx, "t1")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got.Name != want.Name || got.Album != want.Album || got.DurationMs != want.DurationMs {
			t.Errorf("expected %+v, got %+v", want, got)
		}
		if len(got.Artists) != 2 || got.Artists[0] != "Daft Punk" || got.Artists[1] != "Pharrell Williams" {
			t.Errorf("artist order not preserved: %v", got.Artists)
		}
	})

	t.Run("TTL Boundary", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		if err := cache.Tracks.Put(ctx, sampleTrack("t1", "Get Lucky")); err != nil {
			t.Fatalf("failed to put track: %v", err)
		}

		clock.Advance(TrackTTL)
		if _, ok, _ := cache.Tracks.Get(ctx, "t1"); !ok {
			t.Error("row exactly TTL old should still be fresh")
		}

		clock.Advance(time.Second)
		if _, ok, _ := cache.Tracks.Get(ctx, "t1"); ok {
			t.Error("row older than TTL should be a miss")
		}

		var count int
		if err := cache.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if count != 1 {
			t.Errorf("stale read must not delete the row, found %d rows", count)
		}
	})

	t.Run("Overwrite Replaces Row", func(t *testing.T) {
		clock := newTestClock()
		db := setupTestDB(t)
		cache := NewCache(db, WithClock(clock.Now))

		if err := cache.Tracks.Put(ctx, sampleTrack("t1", "First")); err != nil {
			t.Fatalf("failed to put track: %v", err)
		}

		clock.Advance(time.Minute)
		second := sampleTrack("t1", "Second")
		second.Artists = []string{"Someone Else"}
		if err := cache.Tracks.Put(ctx, second); err != nil {
			t.Fatalf("failed to overwrite track: %v", err)
		}

		got, ok, err := cache.Tracks.Get(ctx, "t1")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got.Name != "Second" || len(got.Artists) != 1 {
			t.Errorf("expected second payload, got %+v", got)
		}

		var cachedAt int64
		if err := db.QueryRow("SELECT cached_at FROM tracks WHERE id = 't1'").Scan(&cachedAt); err != nil {
			t.Fatalf("failed to read cached_at: %v", err)
		}
		if cachedAt != clock.Now().Unix() {
			t.Errorf("expected cached_at %d, got %d", clock.Now().Unix(), cachedAt)
		}
	})

	t.Run("PutAll Is Atomic", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewCache(db)
		failInsert(t, db, "tracks", "boom")

		batch := []models.Track{
			sampleTrack("a", "One"),
			sampleTrack("b", "Two"),
			sampleTrack("boom", "Three"),
			sampleTrack("c", "Four"),
		}
		if err := cache.Tracks.PutAll(ctx, batch); err == nil {
			t.Fatal("expected batch write to fail")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no rows after failed batch, got %d", count)
		}
	})

	t.Run("List", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		if err := cache.Tracks.PutAll(ctx, []models.Track{sampleTrack("b", "beta"), sampleTrack("a", "Alpha")}); err != nil {
			t.Fatalf("failed to put tracks: %v", err)
		}

		tracks, err := cache.Tracks.List(ctx)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 || tracks[0].Name != "Alpha" {
			t.Errorf("expected tracks ordered by name, got %+v", tracks)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("PutAll Is Atomic", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewCache(db)
		failInsert(t, db, "playlists", "boom")

		batch := []models.Playlist{samplePlaylist("p1", "Focus"), samplePlaylist("boom", "Broken")}
		if err := cache.Playlists.PutAll(ctx, batch); err == nil {
			t.Fatal("expected batch write to fail")
		}
		if n := countRows(t, db, "playlists"); n != 0 {
			t.Errorf("expected no playlist rows after failed batch, got %d", n)
		}
	})

	t.Run("Empty Snapshot Is A Miss", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		playlists, ok, err := cache.Playlists.Snapshot(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || playlists != nil {
			t.Errorf("expected miss, got ok=%v playlists=%v", ok, playlists)
		}
	})

	t.Run("Snapshot Ordered By Name", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		input := []models.Playlist{samplePlaylist("p2", "Workout"), samplePlaylist("p1", "Chill")}
		input[1].Public = true
		input[1].Description = "slow"
		if err := cache.Playlists.PutAll(ctx, input); err != nil {
			t.Fatalf("failed to put playlists: %v", err)
		}

		playlists, ok, err := cache.Playlists.Snapshot(ctx)
		if err != nil || !ok {
			t.Fatalf("expected fresh snapshot, got ok=%v err=%v", ok, err)
		}
		if len(playlists) != 2 || playlists[0].Name != "Chill" || playlists[1].Name != "Workout" {
			t.Errorf("unexpected snapshot order: %+v", playlists)
		}
		if !playlists[0].Public || playlists[0].Description != "slow" {
			t.Errorf("fields not round-tripped: %+v", playlists[0])
		}
	})

	t.Run("Freshness Follows Newest Row", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		if err := cache.Playlists.PutAll(ctx, []models.Playlist{samplePlaylist("p1", "Alpha")}); err != nil {
			t.Fatalf("failed to put playlists: %v", err)
		}

		clock.Advance(8 * time.Minute)
		if err := cache.Playlists.PutAll(ctx, []models.Playlist{samplePlaylist("p2", "Zeta")}); err != nil {
			t.Fatalf("failed to put playlists: %v", err)
		}

		clock.Advance(PlaylistTTL)
		if _, ok, _ := cache.Playlists.Snapshot(ctx); !ok {
			t.Error("snapshot should be fresh while its newest row is within TTL")
		}

		clock.Advance(time.Second)
		if _, ok, _ := cache.Playlists.Snapshot(ctx); ok {
			t.Error("snapshot should be stale once its newest row is past TTL")
		}
	})
}

func TestSearchRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Independent Keys", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		first := models.NewSearchResult([]models.Track{sampleTrack("t1", "One")}, 40)
		if err := cache.StoreSearch(ctx, SearchKey("abc", 20, 0), first); err != nil {
			t.Fatalf("failed to store search: %v", err)
		}

		if _, ok, _ := cache.Searches.Get(ctx, SearchKey("abc", 20, 20)); ok {
			t.Error("second page should not be cached")
		}

		second := models.NewSearchResult([]models.Track{sampleTrack("t2", "Two")}, 40)
		if err := cache.StoreSearch(ctx, SearchKey("abc", 20, 20), second); err != nil {
			t.Fatalf("failed to store search: %v", err)
		}

		got, ok, err := cache.Searches.Get(ctx, SearchKey("abc", 20, 0))
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if len(got.Tracks) != 1 || got.Tracks[0].ID != "t1" || got.Total != 40 {
			t.Errorf("first page changed by second write: %+v", got)
		}
	})

	t.Run("StoreSearch Caches Tracks", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		result := models.NewSearchResult([]models.Track{sampleTrack("t1", "One"), sampleTrack("t2", "Two")}, 2)
		if err := cache.StoreSearch(ctx, SearchKey("q", 20, 0), result); err != nil {
			t.Fatalf("failed to store search: %v", err)
		}

		for _, id := range []string{"t1", "t2"} {
			if _, ok, _ := cache.Tracks.Get(ctx, id); !ok {
				t.Errorf("expected track %s to be cached", id)
			}
		}
	})

	t.Run("StoreSearch Is Atomic", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewCache(db)
		failInsert(t, db, "tracks", "boom")

		result := models.NewSearchResult([]models.Track{sampleTrack("t1", "One"), sampleTrack("boom", "Two")}, 2)
		if err := cache.StoreSearch(ctx, SearchKey("q", 20, 0), result); err == nil {
			t.Fatal("expected search write to fail")
		}

		if n := countRows(t, db, "search_cache"); n != 0 {
			t.Errorf("expected no search rows after failed write, got %d", n)
		}
		if n := countRows(t, db, "tracks"); n != 0 {
			t.Errorf("expected no track rows after failed write, got %d", n)
		}
		if _, ok, _ := cache.Searches.Get(ctx, SearchKey("q", 20, 0)); ok {
			t.Error("failed write must not leave a cache hit")
		}
	})

	t.Run("Empty Result Round Trips As Empty Slice", func(t *testing.T) {
		cache := NewCache(setupTestDB(t))

		if err := cache.Searches.Put(ctx, "nothing:20:0", models.SearchResult{}); err != nil {
			t.Fatalf("failed to put search: %v", err)
		}

		got, ok, err := cache.Searches.Get(ctx, "nothing:20:0")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got.Tracks == nil || len(got.Tracks) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got.Tracks)
		}
	})

	t.Run("TTL", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		if err := cache.Searches.Put(ctx, "k", models.NewSearchResult(nil, 0)); err != nil {
			t.Fatalf("failed to put search: %v", err)
		}

		clock.Advance(SearchTTL)
		if _, ok, _ := cache.Searches.Get(ctx, "k"); !ok {
			t.Error("search exactly TTL old should be fresh")
		}
		clock.Advance(time.Second)
		if _, ok, _ := cache.Searches.Get(ctx, "k"); ok {
			t.Error("search past TTL should miss")
		}
	})
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Stats And Clear", func(t *testing.T) {
		clock := newTestClock()
		cache := NewCache(setupTestDB(t), WithClock(clock.Now))

		result := models.NewSearchResult([]models.Track{sampleTrack("t1", "One")}, 1)
		if err := cache.StoreSearch(ctx, "q:20:0", result); err != nil {
			t.Fatalf("failed to store search: %v", err)
		}
		if err := cache.Playlists.PutAll(ctx, []models.Playlist{samplePlaylist("p1", "Mix")}); err != nil {
			t.Fatalf("failed to put playlists: %v", err)
		}

		stats, err := cache.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}

		byTable := map[string]TableStats{}
		for _, s := range stats {
			byTable[s.Table] = s
		}
		if byTable["tracks"].Rows != 1 || byTable["search_cache"].Rows != 1 || byTable["playlists"].Rows != 1 {
			t.Errorf("unexpected row counts: %+v", stats)
		}
		if !byTable["tracks"].Newest.Equal(clock.Now()) {
			t.Errorf("expected newest %v, got %v", clock.Now(), byTable["tracks"].Newest)
		}
		if !byTable["playlist_tracks"].Newest.IsZero() {
			t.Error("empty table should report zero newest time")
		}

		if err := cache.Clear(ctx); err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}

		stats, err = cache.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		for _, s := range stats {
			if s.Rows != 0 {
				t.Errorf("expected %s to be empty after clear, got %d rows", s.Table, s.Rows)
			}
		}
	})
}
