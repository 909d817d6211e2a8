// internal/app/features/membership/audience.go
package membership

import (
	"context"
	"errors"
	"strings"

	"github.com/clubops/memberhub/internal/serviceapi/mailinglist"
	"github.com/clubops/memberhub/internal/serviceapi/registry"
	"go.uber.org/zap"
)

// AudienceConfig identifies the mailing list and its special groups.
//
// Shadow groups mirror the member-only groups: a subscriber can opt out of
// a member-only group, and the shadow records whether they want it, so a
// lapsed member who rejoins gets their old choices back instead of being
// force-enrolled.
type AudienceConfig struct {
	ListName           string
	ShadowCategory     string
	CurrentMemberGroup string
	PastMemberGroup    string
}

// AudienceStats counts what an audience import did.
type AudienceStats struct {
	AddedToList               int
	NewMember                 int
	NewMemberUnsubscribed     int
	PastMember                int
	NonMember                 int
	MemberUnsubscribedSkipped int
	MemberCleanedSkipped      int
	ServiceErrors             int
}

// AudienceImporter pushes current club membership into the mailing list.
type AudienceImporter struct {
	Registry *registry.Client
	ClubID   int64
	List     *mailinglist.Client
	Cfg      AudienceConfig
	Log      *zap.Logger
}

type audienceMember struct {
	email   string
	given   string
	family  string
	primary bool
}

// interest id sets applied in the various transitions
type interestSets struct {
	newMember    map[string]bool
	nonMember    map[string]bool
	unsubscribed map[string]bool
}

func (a *AudienceImporter) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// Run performs one import: current members are enrolled or re-enrolled,
// and lapsed subscribers lose the member-only groups (their preferences
// saved to the shadow groups for a possible return).
func (a *AudienceImporter) Run(ctx context.Context) (AudienceStats, error) {
	var stats AudienceStats

	current, err := a.currentMembers(ctx)
	if err != nil {
		return stats, err
	}

	listID, err := a.List.ListID(ctx, a.Cfg.ListName)
	if err != nil {
		return stats, err
	}
	groups, shadow, currentID, pastID, err := a.loadGroups(ctx, listID)
	if err != nil {
		return stats, err
	}
	sets := buildSets(groups, shadow, currentID, pastID)

	subscribers, err := a.List.Members(ctx, listID)
	if err != nil {
		return stats, err
	}
	byHash := make(map[string]mailinglist.Member, len(subscribers))
	for _, s := range subscribers {
		byHash[s.ID] = s
	}

	for _, member := range current {
		hash := mailinglist.SubscriberHash(member.email)
		a.log().Debug("processing member",
			zap.String("email", member.email), zap.String("hash", hash))

		sub, enrolled := byHash[hash]
		if !enrolled {
			err := a.List.CreateMember(ctx, listID, mailinglist.MemberCreate{
				EmailAddress: member.email,
				MergeFields:  map[string]string{"FNAME": member.given, "LNAME": member.family},
				Interests:    sets.newMember,
				Status:       "subscribed",
			})
			var apiErr *mailinglist.APIError
			if errors.As(err, &apiErr) {
				a.log().Warn("mailing list rejected member",
					zap.String("email", member.email), zap.Error(apiErr))
				stats.ServiceErrors++
				continue
			}
			if err != nil {
				return stats, err
			}
			stats.AddedToList++
			continue
		}
		delete(byHash, hash)

		// Already marked current, nothing to do.
		if sub.Interests[currentID] {
			continue
		}

		if sub.Interests[pastID] {
			// Returning member: restore their saved member-group choices.
			interests := map[string]bool{currentID: true}
			for name, shadowID := range shadow {
				if groupID, ok := groups[name]; ok {
					interests[groupID] = sub.Interests[shadowID]
				}
			}
			if err := a.List.UpdateMember(ctx, listID, hash, mailinglist.MemberUpdate{Interests: interests}); err != nil {
				return stats, err
			}
			stats.PastMember++
			continue
		}

		switch sub.Status {
		case "subscribed":
			if err := a.List.UpdateMember(ctx, listID, hash, mailinglist.MemberUpdate{Interests: sets.newMember}); err != nil {
				return stats, err
			}
			stats.NewMember++
		case "unsubscribed":
			err := a.List.UpdateMember(ctx, listID, hash, mailinglist.MemberUpdate{
				Interests: sets.unsubscribed,
				Status:    "subscribed",
			})
			var apiErr *mailinglist.APIError
			if errors.As(err, &apiErr) {
				// The service refuses to resubscribe some members.
				a.log().Info("member unsubscribed, skipped", zap.String("email", member.email))
				stats.MemberUnsubscribedSkipped++
				continue
			}
			if err != nil {
				return stats, err
			}
			stats.NewMemberUnsubscribed++
		default:
			a.log().Info("member cleaned, skipped", zap.String("email", member.email))
			stats.MemberCleanedSkipped++
		}
	}

	// Remaining subscribers are not current members. Turn off the
	// member-only groups, remembering their choices in the shadows.
	for hash, sub := range byHash {
		if !sub.Interests[currentID] {
			continue
		}
		interests := make(map[string]bool, len(sets.nonMember)+len(shadow))
		for id, v := range sets.nonMember {
			interests[id] = v
		}
		for name, shadowID := range shadow {
			if groupID, ok := groups[name]; ok {
				interests[shadowID] = sub.Interests[groupID]
			}
		}
		if err := a.List.UpdateMember(ctx, listID, hash, mailinglist.MemberUpdate{Interests: interests}); err != nil {
			return stats, err
		}
		stats.NonMember++
	}

	return stats, nil
}

// currentMembers downloads the registry's current member list keyed by
// lowercased email, one record per address with primary members preferred.
func (a *AudienceImporter) currentMembers(ctx context.Context) (map[string]audienceMember, error) {
	members, err := a.Registry.ClubMembers(ctx, a.ClubID, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]audienceMember, len(members))
	for _, m := range members {
		key := strings.ToLower(m.User.Email)
		if key == "" {
			continue
		}
		primary := m.PrimaryMember == "T"
		if _, seen := out[key]; seen && !primary {
			continue
		}
		out[key] = audienceMember{
			email:   m.User.Email,
			given:   m.User.FirstName,
			family:  m.User.LastName,
			primary: primary,
		}
	}
	return out, nil
}

// loadGroups classifies every interest group on the list: the current and
// past member markers, the shadow category's groups, and everything else.
func (a *AudienceImporter) loadGroups(ctx context.Context, listID string) (groups, shadow map[string]string, currentID, pastID string, err error) {
	categories, err := a.List.Categories(ctx, listID)
	if err != nil {
		return nil, nil, "", "", err
	}
	groups = make(map[string]string)
	shadow = make(map[string]string)
	for _, cat := range categories {
		interests, err := a.List.CategoryInterests(ctx, listID, cat.ID)
		if err != nil {
			return nil, nil, "", "", err
		}
		for _, in := range interests {
			switch {
			case in.Name == a.Cfg.PastMemberGroup:
				pastID = in.ID
			case in.Name == a.Cfg.CurrentMemberGroup:
				currentID = in.ID
			case cat.Title == a.Cfg.ShadowCategory:
				shadow[in.Name] = in.ID
			default:
				groups[in.Name] = in.ID
			}
		}
	}
	if currentID == "" || pastID == "" {
		return nil, nil, "", "", errors.New("membership: current or past member group not found on mailing list")
	}
	return groups, shadow, currentID, pastID, nil
}

func buildSets(groups, shadow map[string]string, currentID, pastID string) interestSets {
	sets := interestSets{
		newMember:    make(map[string]bool),
		nonMember:    make(map[string]bool),
		unsubscribed: make(map[string]bool),
	}

	// New subscribers get everything.
	for _, id := range groups {
		sets.newMember[id] = true
	}
	for _, id := range shadow {
		sets.newMember[id] = true
	}
	sets.newMember[currentID] = true
	sets.newMember[pastID] = true

	// Lapsed members lose the member-only groups and the current flag.
	for name, id := range groups {
		if _, ok := shadow[name]; ok {
			sets.nonMember[id] = false
		}
	}
	sets.nonMember[currentID] = false

	// Resubscribed members get the member groups on, everything else off.
	for name, id := range groups {
		if _, memberOnly := shadow[name]; memberOnly {
			sets.unsubscribed[id] = true
		} else {
			sets.unsubscribed[id] = false
		}
	}
	for _, id := range shadow {
		sets.unsubscribed[id] = true
	}
	sets.unsubscribed[currentID] = true
	sets.unsubscribed[pastID] = true

	return sets
}
