// Package api is the client for the assistant backend's REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mailmate/internal/model"

	"golang.org/x/oauth2"
)

// ErrUnauthorized means the session token was rejected (expired or revoked).
var ErrUnauthorized = errors.New("session is no longer valid")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Detail)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match a 401.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

const defaultTimeout = 60 * time.Second

// Client knows where the backend lives. Authenticated calls go through a
// Session.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client whose transport carries every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New validates baseURL (e.g. "http://localhost:8000") and returns a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be an absolute http(s) URL", baseURL)
	}
	c := &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoginURL is where the sign-in window is pointed.
func (c *Client) LoginURL() string { return c.base + "/auth/login" }

// Session returns a view of the backend authenticated with token.
func (c *Client) Session(token string) *Session {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	if c.httpClient.Timeout > 0 {
		hc.Timeout = c.httpClient.Timeout
	}
	return &Session{base: c.base, http: hc}
}

// Session is the backend command surface bound to one session token.
type Session struct {
	base string
	http *http.Client
}

func (s *Session) SendMessage(ctx context.Context, text string) (model.ChatResponse, error) {
	var out model.ChatResponse
	err := s.do(ctx, http.MethodPost, "/chatbot/message", map[string]string{"message": text}, &out)
	return out, err
}

func (s *Session) ConfirmAction(ctx context.Context, req model.ConfirmRequest) (model.ConfirmResponse, error) {
	var out model.ConfirmResponse
	err := s.do(ctx, http.MethodPost, "/chatbot/confirm-action", req, &out)
	return out, err
}

func (s *Session) GetGreeting(ctx context.Context) (model.Greeting, error) {
	var out model.Greeting
	err := s.do(ctx, http.MethodGet, "/chatbot/greeting", nil, &out)
	return out, err
}

// GetUserProfile doubles as a token check: it fails with ErrUnauthorized for
// an expired session.
func (s *Session) GetUserProfile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := s.do(ctx, http.MethodGet, "/auth/profile", nil, &out)
	return out, err
}

func (s *Session) GetEmailByID(ctx context.Context, id string) (model.EmailContent, error) {
	var out model.EmailContent
	err := s.do(ctx, http.MethodGet, "/gmail/email/"+url.PathEscape(id), nil, &out)
	return out, err
}

// LatestEmails lists the newest inbox messages, read-only.
func (s *Session) LatestEmails(ctx context.Context) ([]model.Email, error) {
	var out []model.Email
	err := s.do(ctx, http.MethodGet, "/gmail/latest", nil, &out)
	return out, err
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal failed: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// readDetail extracts FastAPI's {"detail": "..."} or falls back to the raw body.
func readDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var e struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(b, &e) == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
		d, _ := json.Marshal(e.Detail)
		return string(d)
	}
	return strings.TrimSpace(string(b))
}
