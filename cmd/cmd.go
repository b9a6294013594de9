// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the MCP server on stdio.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Authenticate, open the cache and serve MCP tools on stdio",
		Action: r.Serve,
	}
}

// authCommand handles the stored Spotify credential.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify credential",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Reuse, refresh or obtain a credential through the browser",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Report the stored credential without contacting Spotify",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored credential",
				Action: r.AuthLogout,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml from the template and run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.Setup,
	}
}

// cacheCommand inspects and manages the local cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show row counts and newest fetch time per table",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached row",
				Action: r.CacheClear,
			},
			{
				Name:    "browse",
				Aliases: []string{"tui", "ui"},
				Usage:   "Browse cached playlists and tracks interactively",
				Action:  r.CacheBrowse,
			},
			{
				Name:  "export",
				Usage: "Export cached playlists and tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv or md)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.CacheExport,
			},
		},
	}
}
