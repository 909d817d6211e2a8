// internal/app/features/meetings/meetings.go

// Package meetings generates meeting invites for tag audiences and nags
// for unwritten status reports.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"time"

	meetingstore "github.com/clubops/memberhub/internal/app/store/meetings"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	tagstore "github.com/clubops/memberhub/internal/app/store/tags"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/app/system/mailer"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Template names looked up per interest.
const (
	TemplateInvite         = "meeting-invite"
	TemplateReportReminder = "status-report-reminder"
)

type Service struct {
	Interest  models.Interest
	Meetings  *meetingstore.Store
	Tags      *tagstore.Store
	Positions *positionstore.Store
	Members   *memberstore.Store
	Templates *templatestore.Store
	Sender    mailer.Sender
	Log       *zap.Logger

	// Now is replaceable in tests.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// InviteStats counts one UpdateInvites run.
type InviteStats struct {
	Meetings       int
	InvitesCreated int
	ReportsCreated int
	SendFailures   int
}

// UpdateInvites walks meetings on or after from, creating invites for the
// tag audience and status report stubs for the report tags. Newly created
// invites get an invitation email; existing invites are left alone.
func (s *Service) UpdateInvites(ctx context.Context, from time.Time) (InviteStats, error) {
	var stats InviteStats

	meetings, err := s.Meetings.Upcoming(ctx, s.Interest.ID, dateutil.DateOf(from))
	if err != nil {
		return stats, err
	}
	stats.Meetings = len(meetings)

	tmpl, err := s.Templates.ByName(ctx, s.Interest.ID, TemplateInvite)
	haveTemplate := err == nil
	if err != nil && !errors.Is(err, templatestore.ErrNotFound) {
		return stats, err
	}

	for _, meeting := range meetings {
		audience, err := s.resolveAudience(ctx, meeting.TagIDs, meeting.Date)
		if err != nil {
			return stats, fmt.Errorf("meeting %s: %w", meeting.Purpose, err)
		}

		for _, member := range audience {
			if member.Email == "" {
				s.log().Warn("invitee has no email address",
					zap.String("member", member.GivenName+" "+member.FamilyName),
					zap.String("meeting", meeting.Purpose))
				continue
			}
			created, err := s.Meetings.EnsureInvite(ctx, models.Invite{
				InterestID: s.Interest.ID,
				MeetingID:  meeting.ID,
				MemberID:   member.ID,
				Email:      member.Email,
				Response:   models.InviteResponseNoResponse,
			})
			if err != nil {
				return stats, err
			}
			if !created {
				continue
			}
			stats.InvitesCreated++

			if !haveTemplate {
				continue
			}
			if err := s.sendInvite(tmpl, meeting, member); err != nil {
				s.log().Error("sending invite failed",
					zap.String("email", member.Email), zap.Error(err))
				stats.SendFailures++
			}
		}

		reporters, err := s.resolveAudience(ctx, meeting.StatusReportTagIDs, meeting.Date)
		if err != nil {
			return stats, fmt.Errorf("meeting %s: %w", meeting.Purpose, err)
		}
		for _, member := range reporters {
			err := s.Meetings.EnsureReport(ctx, models.StatusReport{
				InterestID: s.Interest.ID,
				MeetingID:  meeting.ID,
				MemberID:   member.ID,
			})
			if err != nil {
				return stats, err
			}
			stats.ReportsCreated++
		}
	}
	return stats, nil
}

func (s *Service) sendInvite(tmpl models.EmailTemplate, meeting models.Meeting, member models.Member) error {
	email, err := mailer.RenderTemplate(tmpl, map[string]any{
		"Purpose":  meeting.Purpose,
		"Date":     dateutil.FormatDate(meeting.Date),
		"Location": meeting.Location,
		"Name":     member.GivenName + " " + member.FamilyName,
	})
	if err != nil {
		return err
	}
	email.To = member.Email
	if email.From == "" {
		email.From = s.Interest.FromEmail
	}
	return s.Sender.Send(email)
}

// ReminderStats counts one SendReportReminders run.
type ReminderStats struct {
	Meetings     int
	Reminded     int
	Throttled    int
	SendFailures int
}

// SendReportReminders emails members whose status report for an upcoming
// meeting is still unwritten. A member is not reminded again within
// minInterval of the previous reminder, so a frequent job stays quiet
// between nags.
func (s *Service) SendReportReminders(ctx context.Context, from time.Time, minInterval time.Duration) (ReminderStats, error) {
	var stats ReminderStats

	meetings, err := s.Meetings.Upcoming(ctx, s.Interest.ID, dateutil.DateOf(from))
	if err != nil {
		return stats, err
	}
	stats.Meetings = len(meetings)

	tmpl, err := s.Templates.ByName(ctx, s.Interest.ID, TemplateReportReminder)
	if err != nil {
		if errors.Is(err, templatestore.ErrNotFound) {
			s.log().Warn("report reminder template missing, nothing sent",
				zap.String("template", TemplateReportReminder))
			return stats, nil
		}
		return stats, err
	}

	now := s.now()
	for _, meeting := range meetings {
		open, err := s.Meetings.OpenReports(ctx, meeting.ID)
		if err != nil {
			return stats, err
		}
		if len(open) == 0 {
			continue
		}

		invites, err := s.Meetings.InvitesByMeeting(ctx, meeting.ID)
		if err != nil {
			return stats, err
		}
		inviteByMember := make(map[primitive.ObjectID]models.Invite, len(invites))
		for _, inv := range invites {
			inviteByMember[inv.MemberID] = inv
		}

		for _, report := range open {
			inv, ok := inviteByMember[report.MemberID]
			if ok && inv.LastReminded != nil && now.Sub(*inv.LastReminded) < minInterval {
				stats.Throttled++
				continue
			}

			member, err := s.Members.ByID(ctx, report.MemberID)
			if err != nil {
				return stats, err
			}
			if member.Email == "" {
				continue
			}

			email, err := mailer.RenderTemplate(tmpl, map[string]any{
				"Name":    member.GivenName + " " + member.FamilyName,
				"Purpose": meeting.Purpose,
				"Date":    dateutil.FormatDate(meeting.Date),
			})
			if err != nil {
				return stats, err
			}
			email.To = member.Email
			if email.From == "" {
				email.From = s.Interest.FromEmail
			}
			if err := s.Sender.Send(email); err != nil {
				s.log().Error("sending report reminder failed",
					zap.String("email", member.Email), zap.Error(err))
				stats.SendFailures++
				continue
			}
			stats.Reminded++

			if ok {
				if err := s.Meetings.TouchInviteReminder(ctx, inv.ID, now); err != nil {
					return stats, err
				}
			}
		}
	}
	return stats, nil
}

// resolveAudience expands tags to members: direct tag members plus active
// holders of tagged positions on the given date.
func (s *Service) resolveAudience(ctx context.Context, tagIDs []primitive.ObjectID, onDate time.Time) (map[primitive.ObjectID]models.Member, error) {
	audience := make(map[primitive.ObjectID]models.Member)
	if len(tagIDs) == 0 {
		return audience, nil
	}

	tags, err := s.Tags.ByIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	memberIDs := make(map[primitive.ObjectID]struct{})
	positionIDs := make(map[primitive.ObjectID]struct{})
	for _, tag := range tags {
		for _, id := range tag.MemberIDs {
			memberIDs[id] = struct{}{}
		}
		for _, id := range tag.PositionIDs {
			positionIDs[id] = struct{}{}
		}
	}

	if len(positionIDs) > 0 {
		assignments, err := s.Positions.AssignmentsByInterest(ctx, s.Interest.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			if _, ok := positionIDs[a.PositionID]; ok && a.ActiveOn(onDate) {
				memberIDs[a.MemberID] = struct{}{}
			}
		}
	}

	for id := range memberIDs {
		member, err := s.Members.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		audience[id] = member
	}
	return audience, nil
}
