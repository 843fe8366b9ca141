package httpapi

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	BaseURL string
	// Timeout is the HTTP client's own ceiling. The session Manager layers
	// its per-call deadline on top via context.
	Timeout   time.Duration
	UserAgent string
}

// Client defines a public type used by goSession APIs.
//
// Client is stateless with respect to credentials: every authenticated call
// receives the access token from the caller. Safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	log       zerolog.Logger
}

// Backend routes. Fixed here so error mapping and tests agree on them.
const (
	routeLogin        = "/api/auth/login"
	routeRefresh      = "/api/auth/refresh"
	routeLogout       = "/api/auth/logout"
	routeCurrentUser  = "/api/auth/me"
	routeSubscription = "/api/subscriptions/current"
)

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpapi: base URL required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpapi: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("httpapi: base URL must be http or https")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "goSession/1"
	}
	return &Client{
		base:      base,
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       logger,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) Login(ctx context.Context, email, password string) (goSession.LoginResult, error) {
	var resp loginResponse
	status, apiErr, err := c.doJSON(ctx, http.MethodPost, routeLogin, "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return goSession.LoginResult{}, err
	}
	if status != http.StatusOK {
		return goSession.LoginResult{}, mapLoginStatus(status, apiErr)
	}
	user, err := decodeUser(resp.User)
	if err != nil {
		return goSession.LoginResult{}, fmt.Errorf("%w: login response user payload: %v", goSession.ErrNetwork, err)
	}
	return goSession.LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	}, nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (goSession.RefreshResult, error) {
	var resp refreshResponse
	status, apiErr, err := c.doJSON(ctx, http.MethodPost, routeRefresh, "", refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return goSession.RefreshResult{}, err
	}
	switch {
	case status == http.StatusOK:
		return goSession.RefreshResult{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Authoritative: the refresh token is dead.
		return goSession.RefreshResult{}, fmt.Errorf("%w: %s", goSession.ErrRefreshRejected, apiErr.Message)
	default:
		return goSession.RefreshResult{}, fmt.Errorf("%w: refresh returned status %d", goSession.ErrNetwork, status)
	}
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (goSession.APIUser, error) {
	var raw json.RawMessage
	status, apiErr, err := c.doJSON(ctx, http.MethodGet, routeCurrentUser, accessToken, nil, &raw)
	if err != nil {
		return goSession.APIUser{}, err
	}
	switch {
	case status == http.StatusOK:
		user, err := decodeUser(raw)
		if err != nil {
			return goSession.APIUser{}, fmt.Errorf("%w: user payload: %v", goSession.ErrNetwork, err)
		}
		return user, nil
	case status == http.StatusUnauthorized:
		return goSession.APIUser{}, fmt.Errorf("%w: %s", goSession.ErrUnauthorized, apiErr.Message)
	default:
		return goSession.APIUser{}, fmt.Errorf("%w: current user returned status %d", goSession.ErrNetwork, status)
	}
}

// CurrentSubscription describes the currentsubscription operation and its observable behavior.
//
// CurrentSubscription may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) CurrentSubscription(ctx context.Context, accessToken string) (goSession.APISubscription, error) {
	var sub goSession.APISubscription
	status, _, err := c.doJSON(ctx, http.MethodGet, routeSubscription, accessToken, nil, &sub)
	if err != nil {
		return goSession.APISubscription{}, fmt.Errorf("%w: %v", goSession.ErrSubscriptionUnavailable, err)
	}
	if status != http.StatusOK {
		return goSession.APISubscription{}, fmt.Errorf("%w: status %d", goSession.ErrSubscriptionUnavailable, status)
	}
	return sub, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	status, _, err := c.doJSON(ctx, http.MethodPost, routeLogout, accessToken, nil, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("%w: logout returned status %d", goSession.ErrNetwork, status)
	}
	return nil
}

// doJSON issues one request and decodes either the success payload into out
// or the backend error envelope. Transport failures wrap ErrNetwork; status
// interpretation stays with the caller.
func (c *Client) doJSON(ctx context.Context, method, route, accessToken string, body, out any) (int, errorResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, errorResponse{}, fmt.Errorf("httpapi: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.base.JoinPath(route).String()
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, errorResponse{}, fmt.Errorf("httpapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", c.requestID(ctx))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errorResponse{}, fmt.Errorf("%w: %v", goSession.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, errorResponse{}, fmt.Errorf("%w: read response: %v", goSession.ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out != nil && len(payload) > 0 {
			if err := json.Unmarshal(payload, out); err != nil {
				return 0, errorResponse{}, fmt.Errorf("%w: decode response: %v", goSession.ErrNetwork, err)
			}
		}
		return resp.StatusCode, errorResponse{}, nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(payload, &apiErr)
	c.log.Debug().
		Str("route", route).
		Int("status", resp.StatusCode).
		Str("code", apiErr.Code).
		Msg("httpapi: request rejected")
	return resp.StatusCode, apiErr, nil
}

// requestID forwards a caller correlation ID or mints a fresh one.
func (c *Client) requestID(ctx context.Context) string {
	if id, ok := goSession.RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

func mapLoginStatus(status int, apiErr errorResponse) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", goSession.ErrInvalidCredentials, apiErr.Message)
	case status == http.StatusLocked:
		return fmt.Errorf("%w: %s", goSession.ErrAccountLocked, apiErr.Message)
	case status == http.StatusForbidden && strings.EqualFold(apiErr.Code, "email_unverified"):
		return fmt.Errorf("%w: %s", goSession.ErrEmailUnverified, apiErr.Message)
	default:
		return fmt.Errorf("%w: login returned status %d", goSession.ErrNetwork, status)
	}
}

// decodeUser keeps the raw payload alongside the typed fields so pages can
// read backend extras the snapshot does not model.
func decodeUser(raw json.RawMessage) (goSession.APIUser, error) {
	if len(raw) == 0 {
		return goSession.APIUser{}, errors.New("empty user payload")
	}
	var user goSession.APIUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return goSession.APIUser{}, err
	}
	user.Raw = raw
	return user, nil
}
