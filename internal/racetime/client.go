// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/raceroom/internal/config"
	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/models"
)

// Client is the entry point to a race service: one credential, one snapshot
// cache and one registry of room sessions.
type Client struct {
	cfg      config.RacetimeConfig
	wsBase   string
	now      func() time.Time
	http     *http.Client
	dialer   *websocket.Dialer
	registry *Registry

	emitter   *Emitter
	creds     *CredentialManager
	rest      *restClient
	snapshots *SnapshotCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for token and REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRegistry injects the session registry.
func WithRegistry(r *Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithClock replaces time.Now for credential expiry and snapshot freshness.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// NewClient creates a client for the service described by cfg.
func NewClient(cfg *config.RacetimeConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("racetime config: %w", err)
	}

	c := &Client{
		cfg:     *cfg,
		wsBase:  strings.TrimRight(cfg.WebsocketURL, "/"),
		now:     time.Now,
		emitter: NewEmitter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		}
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}

	c.creds = NewCredentialManager(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes(), c.http, c.now, func(err error) {
		c.emitter.Emit(AuthErrorEvent{Meta: Meta{At: c.now()}, Err: err, Message: err.Error()})
	})
	c.rest = newRESTClient(cfg.BaseURL, c.http, cfg.RateLimit, cfg.RateBurst, cfg.CircuitBreaker)
	c.snapshots = NewSnapshotCache(c.rest, c.creds, cfg.SnapshotTTL, c.now)

	return c, nil
}

// Subscribe registers fn for every event of every room.
func (c *Client) Subscribe(fn func(Event)) (unsubscribe func()) {
	return c.emitter.Subscribe(fn)
}

// Credentials returns the client's credential manager.
func (c *Client) Credentials() *CredentialManager {
	return c.creds
}

// Snapshots returns the client's race snapshot cache.
func (c *Client) Snapshots() *SnapshotCache {
	return c.snapshots
}

// Sessions describes every registered room session.
func (c *Client) Sessions() []SessionInfo {
	return c.registry.List()
}

// JoinRoom connects to a race room unless a session for it exists. endpoint
// is either a full ws(s) URL or a socket path such as "/ws/o/bot/abc".
func (c *Client) JoinRoom(ctx context.Context, endpoint string) error {
	target := c.socketURL(endpoint)
	return c.registry.Join(ctx, target, func() *Session {
		return newSession(c.sessionConfig(target))
	})
}

// LeaveRoom closes the session for endpoint. It reports whether one existed.
func (c *Client) LeaveRoom(endpoint string) bool {
	return c.registry.Leave(c.socketURL(endpoint))
}

// Close closes every room session.
func (c *Client) Close() {
	c.registry.Close()
}

func (c *Client) sessionConfig(endpoint string) sessionConfig {
	return sessionConfig{
		endpoint:             endpoint,
		creds:                c.creds,
		dialer:               c.dialer,
		emitter:              c.emitter,
		now:                  c.now,
		queueLimit:           c.cfg.OutboundQueueLimit,
		pingInterval:         c.cfg.PingInterval,
		readTimeout:          c.cfg.ReadTimeout,
		joinTimeout:          c.cfg.JoinTimeout,
		reconnectDelay:       c.cfg.ReconnectDelay,
		reconnectMaxDelay:    c.cfg.ReconnectMaxDelay,
		maxReconnectAttempts: c.cfg.MaxReconnectAttempts,
		onRaceData:           c.snapshots.Store,
	}
}

func (c *Client) socketURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return endpoint
	}
	return c.wsBase + "/" + strings.TrimLeft(endpoint, "/")
}

// roomFor resolves raceURL to its joined room session.
func (c *Client) roomFor(ctx context.Context, raceURL string) (*Session, error) {
	race, err := c.snapshots.Get(ctx, raceURL)
	if err != nil {
		return nil, err
	}
	if race == nil {
		return nil, fmt.Errorf("%s: %w", raceURL, ErrRaceNotFound)
	}
	if race.WebsocketBotURL == "" {
		return nil, fmt.Errorf("%s: %w", raceURL, ErrNoSocketURL)
	}

	if err := c.JoinRoom(ctx, race.WebsocketBotURL); err != nil {
		return nil, err
	}
	s := c.registry.Get(c.socketURL(race.WebsocketBotURL))
	if s == nil {
		return nil, ErrSessionClosed
	}
	return s, nil
}

// SendAction sends a raw action to the room of raceURL, joining it first.
func (c *Client) SendAction(ctx context.Context, raceURL string, action Action) error {
	s, err := c.roomFor(ctx, raceURL)
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Str("race", raceURL).Str("action", action.Action).Msg("Sending race room action")
	return s.Send(ctx, action)
}

// SendMessage posts a chat message to the room of raceURL.
func (c *Client) SendMessage(ctx context.Context, raceURL, text string, pinned bool) error {
	return c.SendAction(ctx, raceURL, NewMessageAction(text, pinned))
}

// FetchRaceDetails returns the race snapshot for raceURL, from the cache when
// fresh. A race the server does not report yields (nil, nil).
func (c *Client) FetchRaceDetails(ctx context.Context, raceURL string) (*models.RaceDetails, error) {
	return c.snapshots.Get(ctx, raceURL)
}

// CreateRace opens a race in the configured category. When join is set the
// new race's bot room is joined before returning.
func (c *Client) CreateRace(ctx context.Context, params models.RaceParams, join bool) (*models.RaceDetails, error) {
	form, err := params.Form()
	if err != nil {
		return nil, err
	}

	cred, err := c.creds.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.rest.do(ctx, requestConfig{
		operation: "startrace",
		method:    http.MethodPost,
		path:      "/o/" + c.cfg.Category + "/startrace",
		form:      form,
		token:     cred.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	location := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusCreated || location == "" {
		if resp.StatusCode == http.StatusUnauthorized {
			c.creds.Invalidate()
		}
		return nil, &CreateError{StatusCode: resp.StatusCode, Body: resp.bodyText()}
	}

	raceURL := racePath(location)
	logging.Ctx(ctx).Info().Str("race", raceURL).Msg("Race created")

	snapshot, err := c.snapshots.Get(ctx, raceURL)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("race created at %s: %w", raceURL, ErrRaceNotFound)
	}

	race := *snapshot
	if race.URL == "" {
		race.URL = raceURL
	}

	if join {
		if race.WebsocketBotURL == "" {
			return &race, fmt.Errorf("%s: %w", raceURL, ErrNoSocketURL)
		}
		if err := c.JoinRoom(ctx, race.WebsocketBotURL); err != nil {
			return &race, err
		}
	}
	return &race, nil
}

// CancelRace asks the room of raceURL to cancel the race and confirms it with
// a fresh snapshot. It reports whether the race is now cancelled.
func (c *Client) CancelRace(ctx context.Context, raceURL string) (bool, error) {
	if err := c.SendAction(ctx, raceURL, Action{Action: ActionCancelRace}); err != nil {
		return false, err
	}

	race, err := c.snapshots.Refresh(ctx, raceURL)
	if err != nil {
		return false, err
	}
	return race != nil && race.IsCancelled(), nil
}

// FetchCategory returns the category listing of the configured category.
func (c *Client) FetchCategory(ctx context.Context) (*models.CategoryData, error) {
	cred, err := c.creds.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	path := "/" + c.cfg.Category + "/data"
	resp, err := c.rest.do(ctx, requestConfig{
		operation: "category_data",
		method:    http.MethodGet,
		path:      path,
		token:     cred.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.creds.Invalidate()
		}
		return nil, &RequestError{Operation: "category data", StatusCode: resp.StatusCode, Body: resp.bodyText()}
	}

	var data models.CategoryData
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, &DecodeError{Source: path, Kind: "category", Err: err}
	}
	return &data, nil
}

// ListCurrentRaces returns the races currently listed for the category.
func (c *Client) ListCurrentRaces(ctx context.Context) ([]models.RaceSummary, error) {
	data, err := c.FetchCategory(ctx)
	if err != nil {
		return nil, err
	}
	return data.CurrentRaces, nil
}
