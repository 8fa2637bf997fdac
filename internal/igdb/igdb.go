// Package igdb is a minimal client for the IGDB games API, authenticated with
// a Twitch client-credentials token.
package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gamehub/backend/internal/ratelimit"
)

const (
	DefaultBaseURL  = "https://api.igdb.com/v4"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// MaxLimit is the largest page IGDB serves.
	MaxLimit = 500

	gameFields   = "id, name, summary, genres.name, platforms.name, first_release_date, cover.url"
	releasedOnly = "where first_release_date != null;"

	limiterKey = "igdb"
)

// ErrNoCredentials is returned when neither an access token nor a client secret is configured.
var ErrNoCredentials = errors.New("igdb: client id and an access token or client secret are required")

// APIError is a non-2xx reply from IGDB or Twitch.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("igdb: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Named is an expanded reference such as genres.name.
type Named struct {
	Name string `json:"name"`
}

// Image is an expanded cover reference.
type Image struct {
	URL string `json:"url"`
}

// Game is one record of the /games endpoint with the fields the importer asks for.
type Game struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	Genres           []Named `json:"genres"`
	Platforms        []Named `json:"platforms"`
	FirstReleaseDate int64   `json:"first_release_date"`
	Cover            *Image  `json:"cover"`
}

// Token is a Twitch client-credentials grant.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Config configures a Client.
type Config struct {
	ClientID     string
	ClientSecret string
	// AccessToken is used as-is when set; otherwise one is fetched with ClientSecret.
	AccessToken string

	BaseURL    string
	TokenURL   string
	HTTPClient *http.Client
	// Limiter paces outgoing requests. Nil disables pacing.
	Limiter *ratelimit.KeyedRateLimiter
}

// Client talks to IGDB. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || (cfg.AccessToken == "" && cfg.ClientSecret == "") {
		return nil, ErrNoCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{cfg: cfg, http: httpClient, now: time.Now}
	if cfg.AccessToken != "" {
		c.token = cfg.AccessToken
	}
	return c, nil
}

// FetchToken requests a new client-credentials token from Twitch.
func (c *Client) FetchToken(ctx context.Context) (*Token, error) {
	if c.cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("client_secret", c.cfg.ClientSecret)
	params.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var token Token
	if err := c.do(req, &token); err != nil {
		return nil, fmt.Errorf("fetch twitch token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("fetch twitch token: empty access token")
	}
	return &token, nil
}

// Games returns one page of released games, newest release first.
func (c *Client) Games(ctx context.Context, limit, offset int) ([]Game, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	body := fmt.Sprintf("fields %s;\n%s\nsort first_release_date desc;\nlimit %d;\noffset %d;",
		gameFields, releasedOnly, limit, offset)

	var games []Game
	if err := c.query(ctx, "/games", body, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Count returns the number of released games.
func (c *Client) Count(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.query(ctx, "/games/count", releasedOnly, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) query(ctx context.Context, endpoint, body string, dst any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx, limiterKey); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", c.cfg.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	err = c.do(req, dst)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.invalidate(token)
	}
	if err != nil {
		return fmt.Errorf("igdb %s: %w", endpoint, err)
	}
	return nil
}

// accessToken returns the configured token or a cached fetched one, refreshing
// it a minute before it expires.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && (c.expiresAt.IsZero() || c.now().Before(c.expiresAt)) {
		return c.token, nil
	}

	token, err := c.FetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token.AccessToken
	c.expiresAt = c.now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// invalidate drops a rejected token so the next call fetches a new one.
// A static token without a secret to refresh it is kept.
func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.ClientSecret != "" && c.token == token {
		c.token = ""
		c.expiresAt = time.Time{}
	}
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: msg}
	}

	return json.Unmarshal(body, dst)
}
