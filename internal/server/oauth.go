package server

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"
)

var (
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrStateMismatch       = errors.New("state mismatch")
	ErrMissingCode         = errors.New("no authorization code in callback")
)

// CallbackResult is the outcome of the single OAuth redirect.
type CallbackResult struct {
	Code string
	Err  error
}

// CallbackHandler accepts exactly one OAuth2 authorization-code redirect.
//
// The first request is validated (error parameter, then state, then code), answered with a human-readable page and
// reported on [CallbackHandler.Result]. Any later request is rejected.
type CallbackHandler struct {
	path       string
	state      string
	resultChan chan CallbackResult
	once       sync.Once
	mu         sync.Mutex
	hit        bool
}

// NewCallbackHandler creates a handler for the redirect path that expects state.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:       path,
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the callback and reports its outcome.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		err := fmt.Errorf("%w: %s", ErrAuthorizationDenied, errParam)
		if desc := q.Get("error_description"); desc != "" {
			err = fmt.Errorf("%w: %s (%s)", ErrAuthorizationDenied, errParam, desc)
		}
		h.fail(w, err)
		return
	}

	if q.Get("state") != h.state {
		h.fail(w, ErrStateMismatch)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, ErrMissingCode)
		return
	}

	writePage(w, http.StatusOK, "Authorization Successful", "You can close this window and return to the terminal.")
	h.Send(CallbackResult{Code: code})
}

func (h *CallbackHandler) fail(w http.ResponseWriter, err error) {
	writePage(w, http.StatusBadRequest, "Authorization Failed", err.Error())
	h.Send(CallbackResult{Err: err})
}

// Send delivers the result (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel. It receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	color := "#1DB954"
	if status != http.StatusOK {
		color = "#E22134"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %[3]s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message), color)
}
