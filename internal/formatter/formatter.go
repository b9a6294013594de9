// package formatter renders cached entities as JSON tool payloads and as CSV or Markdown exports
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/resonance/internal/models"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or md)", name)
	}
}

// JSON renders v with two-space indentation.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data), nil
}

// FormatDuration converts milliseconds to "m:ss".
func FormatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// VisibilityString returns "Public" or "Private".
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// JoinArtists joins artist names for single-cell display.
func JoinArtists(artists []string) string {
	return strings.Join(artists, ", ")
}

// TracksCSV converts tracks to CSV with columns: ID, Name, Artists, Album, Duration, Popularity, URI
func TracksCSV(tracks []models.Track) ([]byte, error) {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{
			track.ID,
			track.Name,
			strings.Join(track.Artists, "; "),
			track.Album,
			FormatDuration(track.DurationMs),
			strconv.Itoa(track.Popularity),
			track.URI,
		})
	}
	return writeCSV([]string{"ID", "Name", "Artists", "Album", "Duration", "Popularity", "URI"}, rows)
}

// PlaylistsCSV converts playlists to CSV with columns: ID, Name, Description, Tracks, Owner, Visibility, URI
func PlaylistsCSV(playlists []models.Playlist) ([]byte, error) {
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.Description,
			strconv.Itoa(p.TrackCount),
			p.Owner,
			VisibilityString(p.Public),
			p.URI,
		})
	}
	return writeCSV([]string{"ID", "Name", "Description", "Tracks", "Owner", "Visibility", "URI"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// Markdown renders cached playlists and tracks as one document.
func Markdown(playlists []models.Playlist, tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Cached Library\n\n")

	buf.WriteString(fmt.Sprintf("## Playlists (%d)\n\n", len(playlists)))
	for _, p := range playlists {
		buf.WriteString(fmt.Sprintf("- **%s** by %s, %d tracks, %s", p.Name, p.Owner, p.TrackCount, VisibilityString(p.Public)))
		if p.Description != "" {
			buf.WriteString(fmt.Sprintf(": %s", p.Description))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("\n## Tracks (%d)\n\n", len(tracks)))
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, JoinArtists(track.Artists), track.Name, albumPart, FormatDuration(track.DurationMs)))
	}

	return buf.Bytes()
}

// Export renders the cached library in format. CSV output holds the tracks table followed by a blank line and
// the playlists table.
func Export(format Format, playlists []models.Playlist, tracks []models.Track) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(playlists, tracks), nil
	case FormatCSV:
		trackData, err := TracksCSV(tracks)
		if err != nil {
			return nil, err
		}
		playlistData, err := PlaylistsCSV(playlists)
		if err != nil {
			return nil, err
		}
		return append(append(trackData, '\n'), playlistData...), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
