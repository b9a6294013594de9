package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/repositories"
	"github.com/desertthunder/resonance/internal/services"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/desertthunder/resonance/internal/tools"
)

// Serve authenticates with Spotify, opens the cache and serves MCP tools on stdio until the client disconnects
// or a shutdown signal arrives.
//
// Any failure before the server starts is returned as-is so main can exit non-zero.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	manager, err := r.newManager()
	if err != nil {
		return err
	}

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close store", "error", err)
		}
		r.logger.Debug("store closed")
	}()

	tok, err := manager.Authenticate(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("authenticated", "state", manager.State(), "expires", tok.Expiry)

	logger := shared.WithLogger(r.logger, "session", shared.GenerateID())
	catalog := services.NewSpotifyService(services.SpotifyOpts{
		BaseURL:    r.config.Spotify.APIURL,
		HTTPClient: manager.Client(ctx, tok),
		RateLimit:  r.config.Spotify.RateLimit,
		Logger:     logger,
	})

	srv := tools.NewServer(tools.Deps{
		Catalog: catalog,
		Cache:   repositories.NewCache(db),
		Logger:  logger,
	})

	logger.Info("serving MCP on stdio", "db", r.config.Database.Path)
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	r.logger.Info("shutting down")
	return nil
}
