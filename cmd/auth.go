package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/auth"
)

// AuthStatusReport describes the stored credential.
type AuthStatusReport struct {
	State           string    `json:"state"`
	Path            string    `json:"path"`
	Expiry          time.Time `json:"expiry,omitzero"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Scope           string    `json:"scope,omitempty"`
}

// AuthLogin runs the credential lifecycle without starting the MCP server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	manager, err := r.newManager()
	if err != nil {
		return err
	}

	tok, err := manager.Authenticate(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Authenticated with Spotify\n")
	r.writePlain("  Path: %s\n", r.config.TokenPath())
	r.writePlain("  Expires: %s\n", tok.Expiry.Local().Format(time.DateTime))
	return nil
}

// AuthStatus classifies the stored credential without contacting Spotify.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	state, cred := auth.Inspect(store, time.Now())

	report := AuthStatusReport{State: state.String(), Path: store.Path()}
	if cred != nil {
		report.Expiry = cred.Expiry
		report.HasRefreshToken = cred.RefreshToken != ""
		report.Scope = cred.Scope
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Spotify Credential")
	r.writePlain("State: %s\n", report.State)
	r.writePlain("Path: %s\n", report.Path)
	if !report.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", report.Expiry.Local().Format(time.DateTime))
		r.writePlain("Refresh token: %t\n", report.HasRefreshToken)
	}
	return nil
}

// AuthLogout deletes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	if err := store.Delete(); err != nil {
		return err
	}
	r.logger.Info("credential removed", "path", store.Path())
	return r.writePlain("✓ Logged out\n")
}
