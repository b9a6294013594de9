package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/resonance/internal/auth"
	"github.com/desertthunder/resonance/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	logger      *log.Logger
	output      io.Writer
	httpClient  *http.Client
	openBrowser func(string) error
	listen      func(network, address string) (net.Listener, error)
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from the --config flag and the environment before any command runs.
type RunnerOpts struct {
	Config      *shared.Config
	Logger      *log.Logger
	Output      io.Writer
	HTTPClient  *http.Client
	OpenBrowser func(string) error
	Listen      func(network, address string) (net.Listener, error)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		openBrowser: opts.OpenBrowser,
		listen:      opts.Listen,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure resolves configuration once per process and applies the log level.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config, err := shared.ResolveConfig(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// openStore opens the cache database with migrations applied.
func (r *Runner) openStore() (*sql.DB, error) {
	db, err := shared.OpenStore(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", r.config.Database.Path, err)
	}
	return db, nil
}

func (r *Runner) tokenStore() *auth.TokenStore {
	return auth.NewTokenStore(r.config.TokenPath())
}

// newManager builds the credential lifecycle manager from validated configuration.
func (r *Runner) newManager() (*auth.Manager, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	return auth.NewManager(auth.Options{
		ClientID:        r.config.Spotify.ClientID,
		RedirectURI:     r.config.Spotify.RedirectURI,
		AuthURL:         r.config.Spotify.AuthURL,
		TokenURL:        r.config.Spotify.TokenURL,
		Store:           r.tokenStore(),
		CallbackTimeout: r.config.Auth.CallbackTimeout.Duration,
		Logger:          r.logger,
		HTTPClient:      r.httpClient,
		OpenBrowser:     r.openBrowser,
		Listen:          r.listen,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
