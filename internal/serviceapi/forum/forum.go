// internal/serviceapi/forum/forum.go

// Package forum is a typed client for the discussion forum's admin API,
// covering the group membership and invite surface the sync engine needs.
package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusError is a non-2xx API response. IsRateLimit distinguishes 429s,
// which sync runs log and skip rather than abort on.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forum: status %d: %s", e.Status, e.Body)
}

func (e *StatusError) IsRateLimit() bool { return e.Status == http.StatusTooManyRequests }

type Config struct {
	BaseURL  string
	Username string
	APIKey   string
	Timeout  time.Duration

	// Retry policy for rate-limited requests. Zero retries means a 429
	// comes back as a StatusError immediately.
	MaxRetries   int
	RetryBackoff time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// AdminUser is a row from the admin user list.
type AdminUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Group is a forum group.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GroupMember is a member row from a group listing.
type GroupMember struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// QueryResult is the output of a saved data-explorer query: column names
// plus positional rows.
type QueryResult struct {
	Columns []string          `json:"columns"`
	Rows    [][]json.RawMessage `json:"rows"`
}

// Maps converts positional rows to column-keyed maps.
func (q QueryResult) Maps() []map[string]json.RawMessage {
	out := make([]map[string]json.RawMessage, 0, len(q.Rows))
	for _, row := range q.Rows {
		m := make(map[string]json.RawMessage, len(q.Columns))
		for i, col := range q.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// AdminUsers lists active forum users.
func (c *Client) AdminUsers(ctx context.Context) ([]AdminUser, error) {
	var users []AdminUser
	if err := c.do(ctx, http.MethodGet, "/admin/users/list/active.json", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Groups lists all forum groups.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var body struct {
		Groups []Group `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups.json", nil, &body); err != nil {
		return nil, err
	}
	return body.Groups, nil
}

// GroupMembers lists members of the named group.
func (c *Client) GroupMembers(ctx context.Context, groupName string) ([]GroupMember, error) {
	var body struct {
		Members []GroupMember `json:"members"`
	}
	path := fmt.Sprintf("/groups/%s/members.json", groupName)
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Members, nil
}

// AddGroupMembers adds the named users to a group in one call.
func (c *Client) AddGroupMembers(ctx context.Context, groupID int64, usernames []string) error {
	path := fmt.Sprintf("/groups/%d/members.json", groupID)
	return c.do(ctx, http.MethodPut, path, map[string]any{
		"usernames": strings.Join(usernames, ","),
	}, nil)
}

// RemoveGroupMembers removes the named users from a group in one call.
func (c *Client) RemoveGroupMembers(ctx context.Context, groupID int64, usernames []string) error {
	path := fmt.Sprintf("/groups/%d/members.json", groupID)
	return c.do(ctx, http.MethodDelete, path, map[string]any{
		"usernames": strings.Join(usernames, ","),
	}, nil)
}

// RunQuery runs a saved data-explorer query by id.
func (c *Client) RunQuery(ctx context.Context, queryID int64) (QueryResult, error) {
	var res QueryResult
	path := fmt.Sprintf("/admin/plugins/explorer/queries/%d/run", queryID)
	if err := c.do(ctx, http.MethodPost, path, nil, &res); err != nil {
		return QueryResult{}, err
	}
	return res, nil
}

// CreateInvite invites an email address, granting the groups on
// redemption. The forum sends the invite email itself.
func (c *Client) CreateInvite(ctx context.Context, email string, groupIDs []int64) error {
	return c.do(ctx, http.MethodPost, "/invites.json", map[string]any{
		"email":      email,
		"group_ids":  joinIDs(groupIDs),
		"skip_email": false,
	}, nil)
}

// UpdateInvite replaces the group list on an existing invite without
// re-sending the email.
func (c *Client) UpdateInvite(ctx context.Context, inviteID int64, email string, groupIDs []int64) error {
	path := fmt.Sprintf("/invites/%d", inviteID)
	return c.do(ctx, http.MethodPut, path, map[string]any{
		"email":      email,
		"group_ids":  joinIDs(groupIDs),
		"skip_email": true,
	}, nil)
}

// DeleteInvite withdraws an invite entirely.
func (c *Client) DeleteInvite(ctx context.Context, inviteID int64) error {
	return c.do(ctx, http.MethodDelete, "/invites.json", map[string]any{
		"id": inviteID,
	}, nil)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("forum: marshal %s: %w", path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path,
			bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("forum: %w", err)
		}
		req.Header.Set("Api-Key", c.cfg.APIKey)
		req.Header.Set("Api-Username", c.cfg.Username)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.log.Debug("forum request", zap.String("method", method), zap.String("path", path))
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("forum: %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.cfg.MaxRetries {
			resp.Body.Close()
			c.log.Warn("forum rate limited, retrying",
				zap.String("path", path), zap.Int("attempt", attempt+1))
			select {
			case <-time.After(c.cfg.RetryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Status: resp.StatusCode, Body: string(b)}
		}

		if out != nil {
			err = json.NewDecoder(resp.Body).Decode(out)
		}
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("forum: decode %s: %w", path, err)
		}
		return nil
	}
}
