package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/resonance/internal/server"
	"github.com/desertthunder/resonance/internal/shared"
)

// ExpirySkew is how long before expiry a stored access token is already treated as expired.
const ExpirySkew = 60 * time.Second

const defaultCallbackPort = "8888"

// DefaultScopes are requested during authorization.
var DefaultScopes = []string{
	"user-library-read",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// Options configures a [Manager].
type Options struct {
	ClientID    string
	RedirectURI string
	AuthURL     string
	TokenURL    string
	Scopes      []string

	Store           *TokenStore
	CallbackTimeout time.Duration
	Logger          *log.Logger

	// HTTPClient is used for token endpoint calls. Nil uses [http.DefaultClient].
	HTTPClient *http.Client
	// OpenBrowser shows the authorization URL to the user. Nil uses [shared.OpenBrowser].
	OpenBrowser func(url string) error
	// Listen binds the callback listener. Nil uses [net.Listen].
	Listen func(network, address string) (net.Listener, error)
	// Now is the clock for expiry checks. Nil uses [time.Now].
	Now func() time.Time
}

// Manager runs the credential lifecycle.
type Manager struct {
	opts     Options
	config   *oauth2.Config
	redirect *url.URL
	logger   *log.Logger

	mu      sync.Mutex
	state   State
	history []State
}

// NewManager validates opts and creates a Manager in the [NoCredential] state.
func NewManager(opts Options) (*Manager, error) {
	if opts.ClientID == "" {
		return nil, shared.ConfigurationError("SPOTIFY_CLIENT_ID environment variable is required")
	}
	if opts.Store == nil {
		return nil, shared.ConfigurationError("credential store is required")
	}

	redirect, err := url.Parse(opts.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, shared.ConfigurationError(fmt.Sprintf("invalid redirect URI %q", opts.RedirectURI))
	}

	if opts.Scopes == nil {
		opts.Scopes = DefaultScopes
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Listen == nil {
		opts.Listen = net.Listen
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		opts:     opts,
		redirect: redirect,
		logger:   shared.WithLogger(opts.Logger, "component", "auth"),
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		state: NoCredential,
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// History returns every state entered by [Manager.Authenticate], in order.
func (m *Manager) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.history...)
}

func (m *Manager) transition(s State) {
	m.mu.Lock()
	m.state = s
	m.history = append(m.history, s)
	m.mu.Unlock()
	m.logger.Debug("credential state", "state", s)
}

func (m *Manager) fail(message string, cause error) error {
	m.transition(Failed)
	return shared.AuthorizationError(message, cause)
}

// tokenContext carries the token endpoint client for oauth2.
func (m *Manager) tokenContext(ctx context.Context) context.Context {
	if m.opts.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.opts.HTTPClient)
}

// Authenticate yields a usable token, refreshing or running the browser flow as needed.
//
// The returned error, if any, is an authorization error and the manager is left in [Failed].
func (m *Manager) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	cred, err := m.opts.Store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			m.logger.Warn("ignoring unreadable credential", "path", m.opts.Store.Path(), "error", err)
		}
		m.transition(NoCredential)
		return m.authorize(ctx)
	}

	if cred.ValidAt(m.opts.Now(), ExpirySkew) {
		m.transition(HaveValidCredential)
		return cred.Token(), nil
	}

	m.transition(HaveExpiredOrMissingCredential)
	tok, err := m.refresh(ctx, cred.RefreshToken)
	if err == nil {
		if err := m.opts.Store.Save(CredentialFromToken(tok)); err != nil {
			return nil, m.fail("failed to persist refreshed credential", err)
		}
		m.transition(HaveValidCredential)
		return tok, nil
	}
	m.logger.Warn("cannot refresh credential, re-authorizing", "error", err)

	m.transition(NoCredential)
	return m.authorize(ctx)
}

// refresh exchanges refreshToken for a new token. The old refresh token is kept when the response omits one.
//
// Errors match [shared.ErrNoRefreshToken] or [shared.ErrRefreshFailed].
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	m.logger.Info("refreshing access token")
	src := m.config.TokenSource(m.tokenContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// callbackAddress is the address to bind for the redirect URI: its port on every interface, so both IPv4 and IPv6
// loopback resolutions of the redirect host reach the listener.
func (m *Manager) callbackAddress() string {
	port := m.redirect.Port()
	if port == "" {
		port = defaultCallbackPort
	}
	return net.JoinHostPort("", port)
}

// authorize runs the PKCE authorization-code flow.
func (m *Manager) authorize(ctx context.Context) (*oauth2.Token, error) {
	m.transition(AwaitingUserAuthorization)

	ln, err := m.opts.Listen("tcp", m.callbackAddress())
	if err != nil {
		return nil, m.fail("failed to start callback listener", err)
	}

	verifier := oauth2.GenerateVerifier()
	state := shared.GenerateState()
	authURL := m.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	code, err := server.AwaitCallback(ctx, ln, server.CallbackOpts{
		Path:    m.redirect.Path,
		State:   state,
		Timeout: m.opts.CallbackTimeout,
		Logger:  m.logger,
		Ready: func() {
			if err := m.opts.OpenBrowser(authURL); err != nil {
				m.logger.Warn("could not open browser", "error", err)
				m.logger.Info("open this URL in your browser to authorize", "url", authURL)
			}
		},
	})
	if err != nil {
		return nil, m.fail("authorization callback failed", err)
	}

	tok, err := m.config.Exchange(m.tokenContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, m.fail("token exchange failed", err)
	}

	if err := m.opts.Store.Save(CredentialFromToken(tok)); err != nil {
		return nil, m.fail("failed to persist credential", err)
	}

	m.transition(HaveValidCredential)
	m.logger.Info("authorization complete", "path", m.opts.Store.Path())
	return tok, nil
}

// Client returns an HTTP client that authorizes requests with tok, refreshes it when it expires, and saves each
// refreshed token to the store.
func (m *Manager) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	ctx = m.tokenContext(ctx)
	src := &refreshableTokenSource{
		source: m.config.TokenSource(ctx, tok),
		last:   tok.AccessToken,
		callback: func(t *oauth2.Token) {
			if err := m.opts.Store.Save(CredentialFromToken(t)); err != nil {
				m.logger.Error("failed to persist refreshed credential", "error", err)
				return
			}
			m.logger.Debug("persisted refreshed credential")
		},
	}
	return oauth2.NewClient(ctx, src)
}
