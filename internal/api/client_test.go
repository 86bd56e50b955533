package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type staticTokens struct{ token string }

func (s *staticTokens) Token() string { return s.token }

type recordingDropper struct{ drops atomic.Int32 }

func (d *recordingDropper) DropSession(context.Context) { d.drops.Add(1) }

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestBuildURL(t *testing.T) {
	c := newTestClient(t, Config{BaseURL: "https://api.growz.test"})

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"relative gets prefix", "/projects", "https://api.growz.test/api/projects"},
		{"missing leading slash", "projects", "https://api.growz.test/api/projects"},
		{"already prefixed", "/api/projects", "https://api.growz.test/api/projects"},
		{"root itself", "/api", "https://api.growz.test/api"},
		{"prefix-like segment not doubled", "/apiary", "https://api.growz.test/api/apiary"},
		{"absolute passthrough", "https://cdn.growz.test/logo.png", "https://cdn.growz.test/logo.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.BuildURL(tc.in); got != tc.want {
				t.Errorf("BuildURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildURLIdempotent(t *testing.T) {
	c := newTestClient(t, Config{BaseURL: "https://api.growz.test"})

	once := c.BuildURL("/wallet")
	if got := c.BuildURL(once); got != once {
		t.Errorf("BuildURL is not idempotent: %q then %q", once, got)
	}
}

func TestNewRejectsRelativeBase(t *testing.T) {
	if _, err := New(Config{BaseURL: "api.growz.test"}); err == nil {
		t.Fatal("expected error for base URL without scheme")
	}
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestCallSendsFreshTokenPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tokens := &staticTokens{}
	c := newTestClient(t, Config{BaseURL: srv.URL, Tokens: tokens})

	ctx := context.Background()
	if _, err := c.Get(ctx, "/ping"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	tokens.token = "tok-1"
	if _, err := c.Get(ctx, "/ping"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	tokens.token = "tok-2"
	if _, err := c.Get(ctx, "/ping"); err != nil {
		t.Fatalf("third call: %v", err)
	}

	want := []string{"", "Bearer tok-1", "Bearer tok-2"}
	if len(seen) != len(want) {
		t.Fatalf("got %d requests, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/denied":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expired"}`))
		case "/api/broken":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"backend exploded"}`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := c.Get(ctx, "/denied")
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("401 did not surface as *AuthorizationError: %v", err)
	}
	if authErr.Message != "token expired" {
		t.Errorf("AuthorizationError message = %q", authErr.Message)
	}

	_, err = c.Get(ctx, "/broken")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("500 did not surface as *RequestError: %v", err)
	}
	if errors.As(err, &authErr) {
		t.Error("500 must never be mistaken for an authorization failure")
	}
	if reqErr.Status != http.StatusInternalServerError || reqErr.Message != "backend exploded" {
		t.Errorf("RequestError = %d %q", reqErr.Status, reqErr.Message)
	}
}

func TestTransportError(t *testing.T) {
	// Closed server: the dial fails before any HTTP status exists.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	_, err := c.Get(context.Background(), "/anything")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("network failure did not surface as *TransportError: %v", err)
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Error("transport failure must not carry an HTTP status")
	}
}

func TestDropSessionPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	t.Run("disabled by default", func(t *testing.T) {
		dropper := &recordingDropper{}
		c := newTestClient(t, Config{BaseURL: srv.URL, Dropper: dropper})

		if _, err := c.Get(context.Background(), "/denied"); err == nil {
			t.Fatal("expected an error")
		}
		if n := dropper.drops.Load(); n != 0 {
			t.Errorf("dropper invoked %d times with policy off", n)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		dropper := &recordingDropper{}
		c := newTestClient(t, Config{BaseURL: srv.URL, DropSessionOn401: true, Dropper: dropper})

		_, err := c.Get(context.Background(), "/denied")
		var authErr *AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected *AuthorizationError, got %v", err)
		}
		if n := dropper.drops.Load(); n != 1 {
			t.Errorf("dropper invoked %d times, want 1", n)
		}
	})
}

func TestCallMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("kind"); got != "avatar" {
			t.Errorf("form field kind = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "me.png" {
			t.Errorf("file name = %q", header.Filename)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.CallMultipart(context.Background(), http.MethodPost, "/users/me/avatar",
		map[string]string{"kind": "avatar"}, "file", "me.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("CallMultipart: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || resp.Body != nil {
		t.Errorf("got status %d body %q", resp.StatusCode, resp.Body)
	}
}

func TestEmptyBodyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})

	resp, err := c.Get(context.Background(), "/empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Body != nil {
		t.Errorf("empty 200 should leave Body nil, got %q", resp.Body)
	}
	var out map[string]any
	if err := resp.JSON(&out); err != nil {
		t.Errorf("JSON on empty body must be a no-op, got %v", err)
	}
}

func TestExtractMessageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"nope"}`, "nope"},
		{"error field", `{"error":"nope"}`, "nope"},
		{"plain text", "gateway timeout", "gateway timeout"},
		{"empty body", "", "no error detail provided"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractMessage([]byte(tc.body)); got != tc.want {
				t.Errorf("extractMessage(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}
