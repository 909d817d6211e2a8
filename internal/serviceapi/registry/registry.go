// internal/serviceapi/registry/registry.go

// Package registry is a typed client for the club's membership registry
// API. Responses use the registry's own field names; callers translate to
// internal types.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// StatusError is a non-2xx API response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry: status %d: %s", e.Status, e.Body)
}

type Config struct {
	BaseURL string
	Key     string
	Secret  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		key:     cfg.Key,
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

// Address carries the parts of a registry address the club uses.
type Address struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// User is the registry's person record, embedded in both participants and
// club members. Gender is absent for non-binary members.
type User struct {
	UserID     int64   `json:"user_id"`
	FirstName  string  `json:"first_name"`
	MiddleName string  `json:"middle_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	DOB        string  `json:"dob"`
	Gender     string  `json:"gender"`
	Address    Address `json:"address"`
}

// ClubMember is one club membership registration.
type ClubMember struct {
	User            User   `json:"user"`
	MembershipID    int64  `json:"membership_id"`
	MembershipLevel string `json:"club_membership_level_name"`
	PrimaryMember   string `json:"primary_member"` // T or F
	MembershipStart string `json:"membership_start"`
	MembershipEnd   string `json:"membership_end"`
	LastModified    string `json:"last_modified"`
}

// Participant is one race registration.
type Participant struct {
	User     User  `json:"user"`
	RegID    int64 `json:"registration_id"`
	EventID  int64 `json:"event_id"`
}

// ClubMembers pages through all membership registrations for a club.
// currentOnly restricts to unexpired memberships; reconciliation passes
// false and filters on expiration itself so future-dated memberships are
// included.
func (c *Client) ClubMembers(ctx context.Context, clubID int64, currentOnly bool) ([]ClubMember, error) {
	current := "F"
	if currentOnly {
		current = "T"
	}

	var all []ClubMember
	for page := 1; ; page++ {
		c.log.Debug("retrieving club members",
			zap.Int64("club_id", clubID), zap.Int("page", page))

		var body struct {
			ClubMembers []ClubMember `json:"club_members"`
		}
		err := c.get(ctx, fmt.Sprintf("/club/%d/members", clubID), url.Values{
			"current_members_only": {current},
			"page":                 {strconv.Itoa(page)},
		}, &body)
		if err != nil {
			return nil, err
		}
		if len(body.ClubMembers) == 0 {
			return all, nil
		}
		all = append(all, body.ClubMembers...)
	}
}

// RaceParticipants pages through participants of the race's most recent
// event.
func (c *Client) RaceParticipants(ctx context.Context, raceID int64) ([]Participant, error) {
	var race struct {
		Race struct {
			Events []struct {
				EventID int64 `json:"event_id"`
			} `json:"events"`
		} `json:"race"`
	}
	err := c.get(ctx, fmt.Sprintf("/race/%d", raceID), url.Values{
		"most_recent_events_only": {"T"},
	}, &race)
	if err != nil {
		return nil, err
	}
	events := race.Race.Events
	if len(events) == 0 {
		return nil, nil
	}
	if len(events) > 1 {
		c.log.Warn("multiple events found for race, using first",
			zap.Int64("race_id", raceID), zap.Int("events", len(events)))
	}
	eventID := events[0].EventID

	var all []Participant
	for page := 1; ; page++ {
		c.log.Debug("retrieving event participants",
			zap.Int64("event_id", eventID), zap.Int("page", page))

		// The participants endpoint wraps its payload in a one-element
		// array.
		var body []struct {
			Participants []Participant `json:"participants"`
		}
		err := c.get(ctx, fmt.Sprintf("/race/%d/participants", raceID), url.Values{
			"event_id": {strconv.FormatInt(eventID, 10)},
			"page":     {strconv.Itoa(page)},
		}, &body)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 || len(body[0].Participants) == 0 {
			return all, nil
		}
		all = append(all, body[0].Participants...)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.key)
	params.Set("api_secret", c.secret)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry: decode %s: %w", path, err)
	}
	return nil
}
