// internal/serviceapi/mailinglist/mailinglist.go

// Package mailinglist is a typed client for the club's mailing list
// service. Subscribers are addressed by the md5 hash of the lowercased
// email address.
package mailinglist

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError is a structured error response from the service.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailinglist: %s (%d): %s", e.Title, e.Status, e.Detail)
}

// SubscriberHash returns the service's subscriber id for an email address.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

type Config struct {
	// BaseURL including the /3.0 prefix, e.g. derived from the key's
	// datacenter suffix.
	BaseURL string
	APIKey  string
	Timeout time.Duration
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
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Interest is one toggleable group within a category.
type Interest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Member is a list subscriber. Interests maps interest id to enrollment.
type Member struct {
	ID           string            `json:"id"`
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields"`
	Interests    map[string]bool   `json:"interests"`
}

// MemberUpdate is a partial update. Nil Interests and empty Status leave
// those fields untouched.
type MemberUpdate struct {
	Interests map[string]bool `json:"interests,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// MemberCreate enrolls a new subscriber.
type MemberCreate struct {
	EmailAddress string            `json:"email_address"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
	Interests    map[string]bool   `json:"interests,omitempty"`
	Status       string            `json:"status"`
}

// Lists returns all audiences on the account.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var body struct {
		Lists []List `json:"lists"`
	}
	err := c.do(ctx, http.MethodGet, "/lists", url.Values{
		"count":  {"1000"},
		"fields": {"lists.name,lists.id"},
	}, nil, &body)
	return body.Lists, err
}

// ListID resolves an audience by name.
func (c *Client) ListID(ctx context.Context, name string) (string, error) {
	lists, err := c.Lists(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range lists {
		if l.Name == name {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("mailinglist: list %q not found", name)
}

// Categories returns the interest categories of a list.
func (c *Client) Categories(ctx context.Context, listID string) ([]Category, error) {
	var body struct {
		Categories []Category `json:"categories"`
	}
	path := fmt.Sprintf("/lists/%s/interest-categories", listID)
	err := c.do(ctx, http.MethodGet, path, url.Values{
		"count":  {"100"},
		"fields": {"categories.title,categories.id"},
	}, nil, &body)
	return body.Categories, err
}

// CategoryInterests returns the groups within one category.
func (c *Client) CategoryInterests(ctx context.Context, listID, categoryID string) ([]Interest, error) {
	var body struct {
		Interests []Interest `json:"interests"`
	}
	path := fmt.Sprintf("/lists/%s/interest-categories/%s/interests", listID, categoryID)
	err := c.do(ctx, http.MethodGet, path, url.Values{
		"count":  {"100"},
		"fields": {"interests.name,interests.id"},
	}, nil, &body)
	return body.Interests, err
}

// Members pages through every subscriber of a list.
func (c *Client) Members(ctx context.Context, listID string) ([]Member, error) {
	const pageSize = 1000
	var all []Member
	for offset := 0; ; offset += pageSize {
		c.log.Debug("retrieving list members",
			zap.String("list_id", listID), zap.Int("offset", offset))

		var body struct {
			Members []Member `json:"members"`
		}
		path := fmt.Sprintf("/lists/%s/members", listID)
		err := c.do(ctx, http.MethodGet, path, url.Values{
			"count":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
			"fields": {"members.id,members.email_address,members.status,members.merge_fields,members.interests"},
		}, nil, &body)
		if err != nil {
			return nil, err
		}
		all = append(all, body.Members...)
		if len(body.Members) < pageSize {
			return all, nil
		}
	}
}

// UpdateMember patches a subscriber by hash.
func (c *Client) UpdateMember(ctx context.Context, listID, subscriberHash string, upd MemberUpdate) error {
	path := fmt.Sprintf("/lists/%s/members/%s", listID, subscriberHash)
	return c.do(ctx, http.MethodPatch, path, nil, upd, nil)
}

// CreateMember adds a subscriber to the list.
func (c *Client) CreateMember(ctx context.Context, listID string, m MemberCreate) error {
	path := fmt.Sprintf("/lists/%s/members", listID)
	return c.do(ctx, http.MethodPost, path, nil, m, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mailinglist: marshal %s: %w", path, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return fmt.Errorf("mailinglist: %w", err)
	}
	req.SetBasicAuth("memberhub", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailinglist: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Title == "" {
			apiErr.Title = http.StatusText(resp.StatusCode)
			apiErr.Detail = string(raw)
		}
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("mailinglist: decode %s: %w", path, err)
		}
	}
	return nil
}
