// internal/app/features/community/sources.go
package community

import (
	"context"
	"time"

	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	tagstore "github.com/clubops/memberhub/internal/app/store/tags"
	"github.com/clubops/memberhub/internal/serviceapi/registry"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RegistryRaceSource supplies participants of a race's latest event.
type RegistryRaceSource struct {
	Client *registry.Client
	RaceID int64
	Log    *zap.Logger
}

func (s *RegistryRaceSource) Users(ctx context.Context) (map[string]SourceUser, error) {
	parts, err := s.Client.RaceParticipants(ctx, s.RaceID)
	if err != nil {
		return nil, err
	}
	users := make(map[string]SourceUser, len(parts))
	for _, p := range parts {
		if p.User.Email == "" {
			continue
		}
		users[p.User.Email] = SourceUser{
			Email:      p.User.Email,
			GivenName:  p.User.FirstName,
			FamilyName: p.User.LastName,
		}
	}
	if s.Log != nil {
		s.Log.Debug("race participants loaded",
			zap.Int64("race_id", s.RaceID), zap.Int("users", len(users)))
	}
	return users, nil
}

// RegistryClubSource supplies current club members.
type RegistryClubSource struct {
	Client *registry.Client
	ClubID int64
	Log    *zap.Logger
}

func (s *RegistryClubSource) Users(ctx context.Context) (map[string]SourceUser, error) {
	members, err := s.Client.ClubMembers(ctx, s.ClubID, true)
	if err != nil {
		return nil, err
	}
	users := make(map[string]SourceUser, len(members))
	for _, m := range members {
		if m.User.Email == "" {
			continue
		}
		users[m.User.Email] = SourceUser{
			Email:      m.User.Email,
			GivenName:  m.User.FirstName,
			FamilyName: m.User.LastName,
		}
	}
	if s.Log != nil {
		s.Log.Debug("club members loaded",
			zap.Int64("club_id", s.ClubID), zap.Int("users", len(users)))
	}
	return users, nil
}

// TagAudienceSource supplies members addressed by a tag: direct tag members
// plus holders of tagged positions active on OnDate.
type TagAudienceSource struct {
	InterestID primitive.ObjectID
	TagName    string
	OnDate     time.Time

	Tags      *tagstore.Store
	Positions *positionstore.Store
	Members   *memberstore.Store
	Log       *zap.Logger
}

func (s *TagAudienceSource) Users(ctx context.Context) (map[string]SourceUser, error) {
	tag, err := s.Tags.ByName(ctx, s.InterestID, s.TagName)
	if err != nil {
		return nil, err
	}

	tagged := make(map[primitive.ObjectID]struct{})
	for _, id := range tag.MemberIDs {
		tagged[id] = struct{}{}
	}

	if len(tag.PositionIDs) > 0 {
		wanted := make(map[primitive.ObjectID]struct{}, len(tag.PositionIDs))
		for _, id := range tag.PositionIDs {
			wanted[id] = struct{}{}
		}
		assignments, err := s.Positions.AssignmentsByInterest(ctx, s.InterestID)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			if _, ok := wanted[a.PositionID]; ok && a.ActiveOn(s.OnDate) {
				tagged[a.MemberID] = struct{}{}
			}
		}
	}

	users := make(map[string]SourceUser, len(tagged))
	for id := range tagged {
		m, err := s.Members.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m.Email == "" {
			continue
		}
		users[m.Email] = SourceUser{
			Email:      m.Email,
			GivenName:  m.GivenName,
			FamilyName: m.FamilyName,
		}
	}
	if s.Log != nil {
		s.Log.Debug("tag audience loaded",
			zap.String("tag", s.TagName), zap.Int("users", len(users)))
	}
	return users, nil
}
