package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestCallbackHandler(t *testing.T) {
	tc := []struct {
		name       string
		query      string
		wantCode   string
		wantErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "success", query: "?code=abc&state=s1", wantCode: "abc", wantStatus: http.StatusOK, wantBody: "Authorization Successful"},
		{name: "denied", query: "?error=access_denied&state=s1", wantErr: ErrAuthorizationDenied, wantStatus: http.StatusBadRequest, wantBody: "access_denied"},
		{name: "error wins over valid code", query: "?error=server_error&code=abc&state=s1", wantErr: ErrAuthorizationDenied, wantStatus: http.StatusBadRequest},
		{name: "state mismatch", query: "?code=abc&state=evil", wantErr: ErrStateMismatch, wantStatus: http.StatusBadRequest, wantBody: "state mismatch"},
		{name: "missing code", query: "?state=s1", wantErr: ErrMissingCode, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCallbackHandler("/callback", "s1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %q", tt.wantBody)
			}

			result := <-h.Result()
			if result.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, result.Code)
			}
			if !errors.Is(result.Err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, result.Err)
			}
		})
	}

	t.Run("escapes reflected parameters", func(t *testing.T) {
		h := NewCallbackHandler("/callback", "s1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=%3Cscript%3E", nil))

		if strings.Contains(rec.Body.String(), "<script>") {
			t.Error("error parameter must be HTML-escaped")
		}
	})

	t.Run("only one callback", func(t *testing.T) {
		h := NewCallbackHandler("", "s1")
		if h.Routes()[0] != "/callback" {
			t.Errorf("expected default path, got %v", h.Routes())
		}

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=a&state=s1", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=b&state=s1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected second callback to be rejected, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Code != "a" {
			t.Errorf("expected first code, got %q", result.Code)
		}
		if _, ok := <-h.Result(); ok {
			t.Error("expected result channel to be closed")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order and method filtering", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %q", rec.Body.String())
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order %v", order)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestAwaitCallback(t *testing.T) {
	logger := log.New(io.Discard)

	listen := func(t *testing.T) net.Listener {
		t.Helper()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		return ln
	}

	t.Run("returns code and closes listener", func(t *testing.T) {
		ln := listen(t)
		addr := ln.Addr().String()

		go func() {
			resp, err := http.Get("http://" + addr + "/callback?code=xyz&state=s1")
			if err == nil {
				resp.Body.Close()
			}
		}()

		code, err := AwaitCallback(context.Background(), ln, CallbackOpts{Path: "/callback", State: "s1", Logger: logger})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "xyz" {
			t.Errorf("expected code xyz, got %q", code)
		}

		if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
			conn.Close()
			t.Error("expected listener to be closed")
		}
	})

	t.Run("state mismatch closes listener", func(t *testing.T) {
		ln := listen(t)
		addr := ln.Addr().String()

		go func() {
			resp, err := http.Get("http://" + addr + "/callback?code=xyz&state=forged")
			if err == nil {
				resp.Body.Close()
			}
		}()

		_, err := AwaitCallback(context.Background(), ln, CallbackOpts{State: "s1", Logger: logger})
		if !errors.Is(err, ErrStateMismatch) {
			t.Fatalf("expected state mismatch, got %v", err)
		}

		if _, err := http.Get("http://" + addr + "/callback?code=xyz&state=s1"); err == nil {
			t.Error("expected no further callback to be accepted")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := AwaitCallback(context.Background(), listen(t), CallbackOpts{State: "s1", Timeout: 50 * time.Millisecond, Logger: logger})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := AwaitCallback(ctx, listen(t), CallbackOpts{State: "s1", Logger: logger})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context canceled, got %v", err)
		}
	})
}
