// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// MockCatalog is a test double for [services.Catalog].
//
// Each method delegates to the matching func field when set and otherwise returns an empty success. Calls are
// counted by method name.
type MockCatalog struct {
	SearchFunc         func(ctx context.Context, query string, limit, offset int) (models.SearchResult, error)
	SavedTracksFunc    func(ctx context.Context, limit, offset int) (models.TrackPage, error)
	PlaylistsFunc      func(ctx context.Context, limit, offset int) (models.PlaylistPage, error)
	CreatePlaylistFunc func(ctx context.Context, name, description string, public bool) (models.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, uris []string) error
	RemoveTracksFunc   func(ctx context.Context, playlistID string, uris []string) error
	TrackFunc          func(ctx context.Context, id string) (models.Track, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockCatalog) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockCatalog) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit, offset int) (models.SearchResult, error) {
	m.record("Search")
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit, offset)
	}
	return models.NewSearchResult(nil, 0), nil
}

func (m *MockCatalog) SavedTracks(ctx context.Context, limit, offset int) (models.TrackPage, error) {
	m.record("SavedTracks")
	if m.SavedTracksFunc != nil {
		return m.SavedTracksFunc(ctx, limit, offset)
	}
	return models.NewTrackPage(nil, 0), nil
}

func (m *MockCatalog) Playlists(ctx context.Context, limit, offset int) (models.PlaylistPage, error) {
	m.record("Playlists")
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx, limit, offset)
	}
	return models.NewPlaylistPage(nil, 0), nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (models.Playlist, error) {
	m.record("CreatePlaylist")
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description, public)
	}
	return models.Playlist{Name: name, Description: description, Public: public, Owner: "Unknown"}, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.record("AddTracks")
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, uris)
	}
	return nil
}

func (m *MockCatalog) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	m.record("RemoveTracks")
	if m.RemoveTracksFunc != nil {
		return m.RemoveTracksFunc(ctx, playlistID, uris)
	}
	return nil
}

func (m *MockCatalog) Track(ctx context.Context, id string) (models.Track, error) {
	m.record("Track")
	if m.TrackFunc != nil {
		return m.TrackFunc(ctx, id)
	}
	return models.Track{}, errors.New("track not found")
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, target: target}
}

// MustOpenStore opens an in-memory store with migrations applied, closed when the test ends.
func MustOpenStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
