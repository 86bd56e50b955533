package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the current bearer token. The client reads it freshly
// on every call; the token can change between calls (login, logout, forced
// drop) and must never be cached inside the client.
type TokenSource interface {
	Token() string
}

// SessionDropper is invoked on HTTP 401 when the drop-session policy is
// enabled. Implemented by the session service.
type SessionDropper interface {
	DropSession(ctx context.Context)
}

// Config configures the backend client.
type Config struct {
	// BaseURL is the backend origin, e.g. https://api.growz.app.
	BaseURL string
	// Root is the API prefix applied exactly once to relative paths.
	// Defaults to "/api".
	Root string
	// Tokens supplies the bearer token; nil means unauthenticated calls.
	Tokens TokenSource
	// HTTPClient overrides the transport; a 30s-timeout client is used
	// when nil.
	HTTPClient *http.Client
	// DropSessionOn401 enables the forced-logout policy. The 401 still
	// surfaces as *AuthorizationError either way.
	DropSessionOn401 bool
	// Dropper receives the forced logout when the policy is enabled.
	Dropper SessionDropper
}

// Client is the GrowzApp REST client. Calls are fire-once: no retries, no
// backoff; retry policy belongs to callers.
type Client struct {
	baseURL    string
	root       string
	tokens     TokenSource
	httpClient *http.Client

	dropOn401 bool
	dropper   SessionDropper
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if !strings.Contains(cfg.BaseURL, "://") {
		return nil, fmt.Errorf("BaseURL %q must be absolute", cfg.BaseURL)
	}

	root := cfg.Root
	if root == "" {
		root = "/api"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	root = strings.TrimSuffix(root, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		root:       root,
		tokens:     cfg.Tokens,
		httpClient: httpClient,
		dropOn401:  cfg.DropSessionOn401,
		dropper:    cfg.Dropper,
	}, nil
}

// Response is a parsed backend response. A 204 or empty body leaves Body nil.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// JSON unmarshals the response body into v. An empty body is a no-op.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// BuildURL normalizes path into an absolute request URL. Absolute URLs pass
// through unchanged; relative paths receive the API root prefix exactly
// once, making the function idempotent.
func (c *Client) BuildURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != c.root && !strings.HasPrefix(path, c.root+"/") {
		path = c.root + path
	}
	return c.baseURL + path
}

// Call performs a fire-once JSON request against the backend. A non-nil body
// is JSON-encoded. Failures follow the package taxonomy; 2xx responses are
// returned with the raw body for the caller's decoder.
func (c *Client) Call(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(ctx, req)
}

// CallMultipart performs a multipart/form-data upload. The Content-Type is
// taken from the multipart writer so the boundary is always correct; no JSON
// content type is ever attached.
func (c *Client) CallMultipart(ctx context.Context, method, path string, fields map[string]string, fileField, fileName string, file []byte) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("encode form field %q: %w", name, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, fmt.Errorf("encode form file: %w", err)
		}
		if _, err := part.Write(file); err != nil {
			return nil, fmt.Errorf("encode form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(ctx, req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Call(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Call(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, http.MethodDelete, path, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BuildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: req.URL.String(), Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.dropOn401 && c.dropper != nil {
			c.dropper.DropSession(ctx)
		}
		return nil, &AuthorizationError{Message: extractMessage(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &RequestError{Status: resp.StatusCode, Message: extractMessage(body)}
	case resp.StatusCode == http.StatusNoContent || len(body) == 0:
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}
