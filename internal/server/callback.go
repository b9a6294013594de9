package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// CallbackOpts configures [AwaitCallback].
type CallbackOpts struct {
	Path  string
	State string
	// Timeout bounds the wait. Zero waits until ctx is done.
	Timeout time.Duration
	Logger  *log.Logger
	// Ready, when set, is called once the server is accepting requests.
	Ready func()
}

// AwaitCallback serves ln until one OAuth redirect arrives on opts.Path, then shuts the listener down and returns
// the authorization code.
//
// The listener is closed on every return path, so no second callback can be accepted.
func AwaitCallback(ctx context.Context, ln net.Listener, opts CallbackOpts) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	handler := NewCallbackHandler(opts.Path, opts.State)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback listener", "error", err)
		}
		ln.Close()
	}()

	logger.Info("waiting for authorization callback", "addr", ln.Addr().String(), "path", handler.path)
	if opts.Ready != nil {
		opts.Ready()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	select {
	case result := <-handler.Result():
		return result.Code, result.Err
	case err := <-serverErrors:
		return "", fmt.Errorf("callback listener failed: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("authorization timed out after %s: %w", opts.Timeout, ctx.Err())
		}
		return "", ctx.Err()
	}
}
