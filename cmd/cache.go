package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/formatter"
	"github.com/desertthunder/resonance/internal/repositories"
)

// withCache opens the store for the duration of fn.
func (r *Runner) withCache(fn func(cache *repositories.Cache) error) error {
	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(repositories.NewCache(db))
}

// CacheStats prints row counts and the newest fetch time per cache table.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	return r.withCache(func(cache *repositories.Cache) error {
		stats, err := cache.Stats(ctx)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			return r.writeJSON(stats, true)
		}

		r.writePlainHeader("Cache: " + r.config.Database.Path)
		for _, s := range stats {
			newest := "-"
			if !s.Newest.IsZero() {
				newest = s.Newest.Local().Format(time.DateTime)
			}
			r.writePlain("%-16s %6d rows  newest %s\n", s.Table, s.Rows, newest)
		}
		return nil
	})
}

// CacheClear deletes every cached row. The credential file is untouched.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	return r.withCache(func(cache *repositories.Cache) error {
		if err := cache.Clear(ctx); err != nil {
			return err
		}
		r.logger.Info("cache cleared", "path", r.config.Database.Path)
		return r.writePlain("✓ Cache cleared\n")
	})
}

// CacheExport writes cached playlists and tracks as CSV or Markdown to --output or stdout.
func (r *Runner) CacheExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	return r.withCache(func(cache *repositories.Cache) error {
		playlists, err := cache.ListPlaylists(ctx)
		if err != nil {
			return err
		}
		tracks, err := cache.ListTracks(ctx)
		if err != nil {
			return err
		}

		data, err := formatter.Export(format, playlists, tracks)
		if err != nil {
			return err
		}

		output := cmd.String("output")
		if output == "" {
			return r.writePlain("%s", data)
		}

		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.logger.Info("exported cache", "path", output, "playlists", len(playlists), "tracks", len(tracks))
		return r.writePlain("✓ Exported %d playlists and %d tracks to %s\n", len(playlists), len(tracks), output)
	})
}
