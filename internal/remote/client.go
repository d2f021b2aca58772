// Package remote is the HTTP client for the takes API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"twelfthman/internal/apperr"
	"twelfthman/internal/syncer"
)

const maxResponseBytes = 1 << 20

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type FeedItem struct {
	ProviderID   string    `json:"providerId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Club         string    `json:"club"`
	FixtureID    string    `json:"fixtureId"`
	MatchRating  int       `json:"matchRating"`
	MotmPlayerID *string   `json:"motmPlayerId"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	SyncedAt     time.Time `json:"syncedAt"`
}

type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor *string    `json:"nextCursor"`
}

type FeedQuery struct {
	FixtureID string
	Limit     int
	Cursor    string
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Club      string    `json:"club"`
	CreatedAt time.Time `json:"createdAt"`
}

type Registration struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type FixtureRating struct {
	FixtureID string           `json:"fixtureId"`
	Count     int64            `json:"count"`
	Average   *decimal.Decimal `json:"average"`
}

// SyncTakes posts one batch to /takes/sync. Transport failures come back as
// apperr.KindTransientSync, API rejections as the kind matching their status.
func (c *Client) SyncTakes(ctx context.Context, items []syncer.Submission) ([]syncer.Ack, error) {
	var out struct {
		Results []syncer.Ack `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/takes/sync", nil, map[string]any{"takes": items}, true, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Feed(ctx context.Context, q FeedQuery) (FeedPage, error) {
	params := url.Values{}
	if q.FixtureID != "" {
		params.Set("fixtureId", q.FixtureID)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	var page FeedPage
	if err := c.do(ctx, http.MethodGet, "/feed", params, nil, false, &page); err != nil {
		return FeedPage{}, err
	}
	return page, nil
}

func (c *Client) Take(ctx context.Context, providerID string) (FeedItem, error) {
	var item FeedItem
	err := c.do(ctx, http.MethodGet, "/takes/"+url.PathEscape(providerID), nil, nil, false, &item)
	return item, err
}

func (c *Client) Register(ctx context.Context, username, club string) (Registration, error) {
	var reg Registration
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, map[string]string{"username": username, "club": club}, false, &reg)
	return reg, err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, true, &out)
	return out.User, err
}

func (c *Client) Ratings(ctx context.Context, fixtureID string) (FixtureRating, error) {
	var out FixtureRating
	err := c.do(ctx, http.MethodGet, "/fixtures/"+url.PathEscape(fixtureID)+"/ratings", nil, nil, false, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, authed bool, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return apperr.Validation("server url is not configured", nil)
	}
	endpoint := base + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal(err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperr.Internal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		tok := c.Token()
		if tok == "" {
			return apperr.Auth("not registered: no bearer token")
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return apperr.TransientSync(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperr.TransientSync("read "+path+" response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return apperr.TransientSync("decode "+path+" response", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var env apperr.Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		env = apperr.Envelope{Error: apperr.Body{Message: fmt.Sprintf("http %d: %s", status, msg)}}
	}
	e := apperr.FromEnvelope(status, env)
	if status >= 500 {
		return apperr.TransientSync(e.Message, errors.New(e.Code))
	}
	return e
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
