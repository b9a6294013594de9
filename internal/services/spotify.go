// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	SpotifyBaseURL  = "https://api.spotify.com/v1"
)

// unknownOwner stands in for a playlist owner without a display name.
const unknownOwner = "Unknown"

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	Product     string  `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Owner struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a playlist object as returned by listings and by playlist creation.
//
// Description, owner display name and public are nullable in Spotify's API.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Owner       Owner             `json:"owner"`
	Public      *bool             `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	URI         string            `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPage is Spotify's paging object.
type SpotifyPage[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// SpotifySearchResponse is the body of a track search.
type SpotifySearchResponse struct {
	Tracks *SpotifyPage[SpotifyTrack] `json:"tracks"`
}

// spotifyErrorBody is the regular error object Spotify returns with non-2xx statuses.
type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	// BaseURL defaults to [SpotifyBaseURL].
	BaseURL string
	// HTTPClient must attach the bearer credential. See auth.Manager.Client.
	HTTPClient *http.Client
	// RateLimit is the sustained request rate per second. Zero or less disables pacing.
	RateLimit float64
	Logger    *log.Logger
}

// SpotifyService implements [Catalog] for the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyService creates a facade over the Spotify Web API.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	if opts.BaseURL == "" {
		opts.BaseURL = SpotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &SpotifyService{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// doRequest performs an authenticated JSON request against the Spotify API.
//
// Any failure is returned as a remote API error tagged with op.
func (s *SpotifyService) doRequest(ctx context.Context, op, method, endpoint string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return shared.RemoteAPIError(op, 0, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return shared.RemoteAPIError(op, 0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return shared.RemoteAPIError(op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return shared.RemoteAPIError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("spotify request failed", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
		return shared.RemoteAPIError(op, resp.StatusCode, statusError(resp))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return shared.RemoteAPIError(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// statusError builds the detail for a non-2xx response, preferring Spotify's own error message.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body spotifyErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body.Error.Message)
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, text)
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// Search finds tracks matching query.
func (s *SpotifyService) Search(ctx context.Context, query string, limit, offset int) (models.SearchResult, error) {
	q := pageQuery(limit, offset)
	q.Set("q", query)
	q.Set("type", "track")

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, OpSearch, http.MethodGet, "/search?"+q.Encode(), nil, &response); err != nil {
		return models.SearchResult{}, err
	}

	if response.Tracks == nil {
		return models.NewSearchResult(nil, 0), nil
	}
	return models.NewSearchResult(convertTracks(response.Tracks.Items), response.Tracks.Total), nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (models.TrackPage, error) {
	var response SpotifyPage[SpotifySavedTrack]
	endpoint := "/me/tracks?" + pageQuery(limit, offset).Encode()
	if err := s.doRequest(ctx, OpSavedTracks, http.MethodGet, endpoint, nil, &response); err != nil {
		return models.TrackPage{}, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, convertTrack(*item.Track))
	}
	return models.NewTrackPage(tracks, response.Total), nil
}

// Playlists retrieves the current user's playlists with pagination.
func (s *SpotifyService) Playlists(ctx context.Context, limit, offset int) (models.PlaylistPage, error) {
	var response SpotifyPage[*SpotifyPlaylist]
	endpoint := "/me/playlists?" + pageQuery(limit, offset).Encode()
	if err := s.doRequest(ctx, OpPlaylists, http.MethodGet, endpoint, nil, &response); err != nil {
		return models.PlaylistPage{}, err
	}

	playlists := make([]models.Playlist, 0, len(response.Items))
	for _, item := range response.Items {
		if item == nil {
			continue
		}
		playlists = append(playlists, convertPlaylist(*item))
	}
	return models.NewPlaylistPage(playlists, response.Total), nil
}

func (s *SpotifyService) userProfile(ctx context.Context, op string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, op, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist creates a playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (models.Playlist, error) {
	user, err := s.userProfile(ctx, OpCreatePlaylist)
	if err != nil {
		return models.Playlist{}, err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, OpCreatePlaylist, http.MethodPost, endpoint, body, &created); err != nil {
		return models.Playlist{}, err
	}
	return convertPlaylist(created), nil
}

// AddTracks appends track URIs to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	body := map[string]any{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpAddTracks, http.MethodPost, endpoint, body, nil)
}

// RemoveTracks removes track URIs from a playlist.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	type trackRef struct {
		URI string `json:"uri"`
	}

	refs := make([]trackRef, len(uris))
	for i, uri := range uris {
		refs[i] = trackRef{URI: uri}
	}

	body := map[string]any{"tracks": refs}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpRemoveTracks, http.MethodDelete, endpoint, body, nil)
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, id string) (models.Track, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(id))
	if err := s.doRequest(ctx, OpTrack, http.MethodGet, endpoint, nil, &track); err != nil {
		return models.Track{}, err
	}
	return convertTrack(track), nil
}

func convertTrack(t SpotifyTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	return models.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		URI:        t.URI,
		DurationMs: t.DurationMS,
		Popularity: t.Popularity,
	}
}

func convertTracks(items []SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks
}

func convertPlaylist(p SpotifyPlaylist) models.Playlist {
	playlist := models.Playlist{
		ID:         p.ID,
		Name:       p.Name,
		TrackCount: p.Tracks.Total,
		URI:        p.URI,
		Owner:      unknownOwner,
	}

	if p.Description != nil {
		playlist.Description = *p.Description
	}
	if p.Owner.DisplayName != nil {
		playlist.Owner = *p.Owner.DisplayName
	}
	if p.Public != nil {
		playlist.Public = *p.Public
	}
	return playlist
}

var _ Catalog = (*SpotifyService)(nil)

