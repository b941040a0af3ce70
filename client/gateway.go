package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RouteCategory selects the timeout profile for a request.
type RouteCategory string

const (
	RouteDefault  RouteCategory = "default"
	RouteAuth     RouteCategory = "auth"
	RouteUpload   RouteCategory = "upload"
	RouteDownload RouteCategory = "download"
)

// Timeouts holds the per-category request deadlines.
type Timeouts struct {
	Default  time.Duration
	Auth     time.Duration
	Upload   time.Duration
	Download time.Duration
}

// DefaultTimeouts mirrors the profiles the mobile app ships with.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default:  30 * time.Second,
		Auth:     15 * time.Second,
		Upload:   2 * time.Minute,
		Download: 2 * time.Minute,
	}
}

// Config configures a Gateway. Zero values fall back to defaults in New.
type Config struct {
	BaseURL        string
	RefreshPath    string        // default "/auth/refresh"
	MaxRetries     int           // transient-failure retry budget, default 2, negative disables
	RetryBaseDelay time.Duration // first backoff step, default 1s
	Timeouts       Timeouts
	HTTPClient     *http.Client

	// OnSessionExpired runs once when a token refresh fails and the session
	// must be torn down (force logout). Optional.
	OnSessionExpired func()
}

// Request describes one outgoing API call.
type Request struct {
	Method   string
	Path     string
	Body     []byte
	Header   http.Header
	Category RouteCategory
}

// Response is the inspected server answer for a completed request.
type Response struct {
	ID     string // gateway-assigned request id
	Status int
	Body   []byte
	Header http.Header
}

type refreshOutcome struct {
	access string
	err    error
}

// Gateway is the authenticated HTTP client for the finance API. It attaches
// the current access token as a bearer credential, retries transient
// failures with exponential backoff, and coalesces concurrent 401-triggered
// refreshes into a single call whose outcome every contender shares.
//
// One Gateway is owned per client session; all state, including the
// refresh-in-flight flag and its waiter queue, lives on the instance.
type Gateway struct {
	config Config
	http   *http.Client

	tokenMu sync.RWMutex
	access  string
	refresh string

	refreshMu       sync.Mutex
	refreshInFlight bool
	waiters         []chan refreshOutcome
}

// New validates cfg, applies defaults, and returns a Gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = DefaultTimeouts()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Gateway{config: cfg, http: httpClient}, nil
}

// SetTokens stores the access/refresh pair, e.g. after login.
func (g *Gateway) SetTokens(access, refresh string) {
	g.tokenMu.Lock()
	g.access = access
	g.refresh = refresh
	g.tokenMu.Unlock()
}

// Tokens returns the current access/refresh pair.
func (g *Gateway) Tokens() (access, refresh string) {
	g.tokenMu.RLock()
	defer g.tokenMu.RUnlock()
	return g.access, g.refresh
}

// Do executes req against the API. Transient failures (timeouts, 5xx) are
// retried up to the configured budget with base*2^(attempt-1) backoff. A
// 401 off the refresh path triggers a single-flight token refresh followed
// by one replay; a second 401 after the replay tears the session down.
// Context cancellation propagates as CANCELLED with no retry.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	id := uuid.NewString()

	retries := 0
	refreshed := false
	for {
		resp, err := g.send(ctx, id, req)
		if err != nil {
			catErr := g.categorizeTransport(ctx, err)
			if !catErr.Retryable || retries >= g.config.MaxRetries {
				return nil, catErr
			}
			retries++
			if err := g.backoff(ctx, retries); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.Status == 401 && !g.isRefreshPath(req.Path):
			if refreshed {
				// The refreshed credential was still rejected.
				g.teardown()
				return nil, newError(CategoryAuthentication, resp.Status, nil)
			}
			if _, err := g.refreshAndWait(ctx); err != nil {
				return nil, err
			}
			refreshed = true
			continue

		case resp.Status >= 500:
			if retries >= g.config.MaxRetries {
				return nil, newError(CategoryServer, resp.Status, nil)
			}
			retries++
			if err := g.backoff(ctx, retries); err != nil {
				return nil, err
			}
			continue

		case resp.Status >= 400:
			return nil, newError(categoryForStatus(resp.Status), resp.Status, nil)

		default:
			return resp, nil
		}
	}
}

func (g *Gateway) send(ctx context.Context, id string, req Request) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeoutFor(req.Category))
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, method, g.config.BaseURL+req.Path, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" && len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", id)
	if access, _ := g.Tokens(); access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	httpResp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		ID:     id,
		Status: httpResp.StatusCode,
		Body:   respBody,
		Header: httpResp.Header,
	}, nil
}

// categorizeTransport distinguishes caller cancellation from deadline and
// network failures.
func (g *Gateway) categorizeTransport(ctx context.Context, err error) *Error {
	if ctx.Err() == context.Canceled {
		return newError(CategoryCancelled, 0, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CategoryTimeout, 0, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(CategoryTimeout, 0, err)
	}
	return newError(CategoryNetwork, 0, err)
}

// backoff sleeps base*2^(attempt-1), bailing out as CANCELLED if the caller
// gives up while waiting.
func (g *Gateway) backoff(ctx context.Context, attempt int) error {
	delay := g.config.RetryBaseDelay << (attempt - 1)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return newError(CategoryCancelled, 0, ctx.Err())
	}
}

// refreshAndWait enforces the single-flight contract: the first caller in a
// contention window performs the refresh; every other caller enqueues a
// waiter channel and shares the same outcome, success or failure.
func (g *Gateway) refreshAndWait(ctx context.Context) (string, error) {
	g.refreshMu.Lock()
	if g.refreshInFlight {
		ch := make(chan refreshOutcome, 1)
		g.waiters = append(g.waiters, ch)
		g.refreshMu.Unlock()

		select {
		case out := <-ch:
			return out.access, out.err
		case <-ctx.Done():
			return "", newError(CategoryCancelled, 0, ctx.Err())
		}
	}
	g.refreshInFlight = true
	g.refreshMu.Unlock()

	access, err := g.callRefresh(ctx)

	g.refreshMu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.refreshInFlight = false
	g.refreshMu.Unlock()

	out := refreshOutcome{access: access, err: err}
	for _, ch := range waiters {
		ch <- out
	}

	if err != nil {
		g.teardown()
	}
	return access, err
}

// callRefresh posts the stored refresh token to the refresh endpoint and
// stores the returned pair.
func (g *Gateway) callRefresh(ctx context.Context) (string, error) {
	_, refresh := g.Tokens()
	if refresh == "" {
		return "", newError(CategoryAuthentication, 0, errors.New("no refresh token stored"))
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return "", newError(CategoryUnknown, 0, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeoutFor(RouteAuth))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.config.BaseURL+g.config.RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", newError(CategoryUnknown, 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.http.Do(httpReq)
	if err != nil {
		return "", g.categorizeTransport(ctx, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", newError(CategoryAuthentication, httpResp.StatusCode, errors.New("refresh rejected"))
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&tokens); err != nil {
		return "", newError(CategoryUnknown, httpResp.StatusCode, err)
	}
	if tokens.AccessToken == "" {
		return "", newError(CategoryAuthentication, httpResp.StatusCode, errors.New("refresh response missing access token"))
	}

	g.tokenMu.Lock()
	g.access = tokens.AccessToken
	if tokens.RefreshToken != "" {
		g.refresh = tokens.RefreshToken
	}
	g.tokenMu.Unlock()

	return tokens.AccessToken, nil
}

func (g *Gateway) teardown() {
	g.SetTokens("", "")
	if g.config.OnSessionExpired != nil {
		g.config.OnSessionExpired()
	}
}

func (g *Gateway) isRefreshPath(path string) bool {
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(g.config.RefreshPath, "/")
}

func (g *Gateway) timeoutFor(category RouteCategory) time.Duration {
	switch category {
	case RouteAuth:
		return g.config.Timeouts.Auth
	case RouteUpload:
		return g.config.Timeouts.Upload
	case RouteDownload:
		return g.config.Timeouts.Download
	default:
		return g.config.Timeouts.Default
	}
}
