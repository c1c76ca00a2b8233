// Package apiclient talks to the PromptStudio REST backend.
//
// Every request reads the access token from the token store just before it
// is sent. A 401 triggers at most one refresh per request: the stored refresh
// token is exchanged for a new pair, the pair is persisted, and the request is
// replayed once with the new bearer. If the refresh itself fails the stored
// credentials are cleared and a *RefreshError is returned.
package apiclient

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

	"github.com/google/uuid"
	"github.com/jrsteele09/promptstudio/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	pathRefresh = "/api/Auth/refresh"

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	tokenLogPrefix      = 12
)

// Client is safe for concurrent use. Concurrent requests that all hit a 401
// each refresh independently; every refresh yields a valid pair and the last
// write to the store wins.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	store        tokenstore.Store
	logger       zerolog.Logger
	newRequestID func() string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDFunc sets the generator for X-Request-ID (primarily for testing).
func WithRequestIDFunc(f func() string) Option {
	return func(c *Client) {
		c.newRequestID = f
	}
}

// New creates a client for the backend at baseURL, reading and writing
// credentials through store.
func New(baseURL string, store tokenstore.Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[apiclient.New] token store is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[apiclient.New] invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[apiclient.New] base URL must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:      u,
		httpClient:   http.DefaultClient,
		store:        store,
		logger:       log.Logger,
		newRequestID: func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// request is one logical call. retried is set once the request has been
// replayed after a refresh and is never reset.
type request struct {
	method    string
	path      string
	body      []byte
	anonymous bool
	retried   bool
	id        string
}

// Do sends method to path with in encoded as the JSON body (nil for none)
// and decodes a successful response body into out (nil to discard).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(method, path, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// doAnonymous sends without a bearer token and without refresh-on-401.
func (c *Client) doAnonymous(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(method, path, in)
	if err != nil {
		return err
	}
	req.anonymous = true
	return c.do(ctx, req, out)
}

func (c *Client) newRequest(method, path string, in any) (*request, error) {
	req := &request{method: method, path: path, id: c.newRequestID()}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		req.body = b
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *request, out any) error {
	token := ""
	if !req.anonymous {
		token = c.storedValue(ctx, tokenstore.KeyAccessToken)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.anonymous && !req.retried {
		original := c.readError(req, resp)
		return c.refreshAndReplay(ctx, req, original, out)
	}
	return c.handle(req, resp, out)
}

func (c *Client) refreshAndReplay(ctx context.Context, req *request, original *APIError, out any) error {
	req.retried = true
	logger := c.logger.With().Str("request_id", req.id).Str("path", req.path).Logger()

	refreshToken := c.storedValue(ctx, tokenstore.KeyRefreshToken)
	if refreshToken == "" {
		logger.Debug().Msg("401 with no refresh token")
		return original
	}

	logger.Debug().Msg("401 received, refreshing token")
	pair, err := c.refresh(ctx, refreshToken, req.id)
	if err != nil {
		logger.Warn().Err(err).Msg("token refresh failed, clearing credentials")
		if clearErr := tokenstore.Clear(ctx, c.store); clearErr != nil {
			logger.Error().Err(clearErr).Msg("failed to clear credentials")
		}
		return &RefreshError{Err: err}
	}

	if err := tokenstore.SaveTokens(ctx, c.store, pair.AccessToken, pair.RefreshToken); err != nil {
		logger.Error().Err(err).Msg("failed to persist refreshed tokens")
	}

	resp, err := c.send(ctx, req, pair.AccessToken)
	if err != nil {
		return err
	}
	return c.handle(req, resp, out)
}

// refresh exchanges refreshToken for a new pair. It bypasses do so a 401 from
// the refresh endpoint can never trigger another refresh.
func (c *Client) refresh(ctx context.Context, refreshToken, requestID string) (*AuthResponse, error) {
	body, err := json.Marshal(RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode refresh body: %w", err)
	}
	req := &request{method: http.MethodPost, path: pathRefresh, body: body, anonymous: true, id: requestID}

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return nil, err
	}

	var pair AuthResponse
	if err := c.handle(req, resp, &pair); err != nil {
		return nil, err
	}
	if !pair.HasTokenPair() {
		return nil, errors.New("refresh response missing access or refresh token")
	}
	return &pair, nil
}

func (c *Client) send(ctx context.Context, req *request, token string) (*http.Response, error) {
	u := c.baseURL.JoinPath(req.path)

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.id != "" {
		httpReq.Header.Set(headerRequestID, req.id)
	}
	if token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Str("request_id", req.id).
		Bool("token_attached", token != "").
		Bool("retry", req.retried).
		Msg("api request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", req.path).Str("request_id", req.id).Msg("api transport error")
		return nil, err
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("path", req.path).
		Str("request_id", req.id).
		Msg("api response")
	return resp, nil
}

// handle decodes a success into out or turns a failure into *APIError. It
// always closes the body.
func (c *Client) handle(req *request, resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return c.readError(req, resp)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", req.method, req.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) readError(req *request, resp *http.Response) *APIError {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return newAPIError(req.method, req.path, resp.StatusCode, b)
}

// storedValue reads one key. A storage failure is logged and treated as an
// absent value.
func (c *Client) storedValue(ctx context.Context, key string) string {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("token store read failed")
		return ""
	}
	if v[key] != "" && key == tokenstore.KeyAccessToken {
		c.logger.Trace().Str("token", tokenPrefix(v[key])).Msg("access token found")
	}
	return v[key]
}

func tokenPrefix(token string) string {
	if len(token) <= tokenLogPrefix {
		return "***"
	}
	return token[:tokenLogPrefix] + "..."
}
