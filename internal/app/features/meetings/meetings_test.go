// internal/app/features/meetings/meetings_test.go
package meetings

import (
	"testing"
	"time"

	meetingstore "github.com/clubops/memberhub/internal/app/store/meetings"
	memberstore "github.com/clubops/memberhub/internal/app/store/members"
	positionstore "github.com/clubops/memberhub/internal/app/store/positions"
	tagstore "github.com/clubops/memberhub/internal/app/store/tags"
	templatestore "github.com/clubops/memberhub/internal/app/store/templates"
	"github.com/clubops/memberhub/internal/app/system/mailer"
	"github.com/clubops/memberhub/internal/domain/models"
	"github.com/clubops/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type captureSender struct {
	sent []mailer.Email
}

func (c *captureSender) Send(e mailer.Email) error {
	c.sent = append(c.sent, e)
	return nil
}

func newService(t *testing.T, db *mongo.Database, interest models.Interest, sender mailer.Sender) *Service {
	t.Helper()
	return &Service{
		Interest:  interest,
		Meetings:  meetingstore.New(db),
		Tags:      tagstore.New(db),
		Positions: positionstore.New(db),
		Members:   memberstore.New(db),
		Templates: templatestore.New(db),
		Sender:    sender,
	}
}

func TestUpdateInvitesCreatesAndIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	interest := fx.CreateInterest(ctx, "fsrc")
	member := fx.CreateMember(ctx, interest.ID, "Lin", "Maya", "maya@example.com")
	position := fx.CreatePosition(ctx, interest.ID, "Race Director")
	fx.AssignPosition(ctx, interest.ID, member.ID, position.ID,
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC))
	tag := fx.CreateTag(ctx, interest.ID, "board", position.ID)
	fx.CreateTemplate(ctx, interest.ID, TemplateInvite,
		"Meeting: {{.Purpose}}", "<p>{{.Name}}, please join on {{.Date}}.</p>")

	meetings := meetingstore.New(db)
	meetingDate := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	_, err := meetings.Create(ctx, models.Meeting{
		InterestID:         interest.ID,
		Purpose:            "Board Meeting",
		Date:               meetingDate,
		TagIDs:             []primitive.ObjectID{tag.ID},
		StatusReportTagIDs: []primitive.ObjectID{tag.ID},
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}

	sender := &captureSender{}
	svc := newService(t, db, interest, sender)

	from := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	stats, err := svc.UpdateInvites(ctx, from)
	if err != nil {
		t.Fatalf("UpdateInvites() error = %v", err)
	}
	if stats.InvitesCreated != 1 {
		t.Errorf("InvitesCreated = %d, want 1", stats.InvitesCreated)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "maya@example.com" {
		t.Errorf("To = %q", sender.sent[0].To)
	}
	if sender.sent[0].Subject != "Meeting: Board Meeting" {
		t.Errorf("Subject = %q", sender.sent[0].Subject)
	}

	// Second run finds the invite already present and stays quiet.
	stats, err = svc.UpdateInvites(ctx, from)
	if err != nil {
		t.Fatalf("second UpdateInvites() error = %v", err)
	}
	if stats.InvitesCreated != 0 {
		t.Errorf("second run InvitesCreated = %d, want 0", stats.InvitesCreated)
	}
	if len(sender.sent) != 1 {
		t.Errorf("second run sent more email: %d total", len(sender.sent))
	}
}

func TestSendReportRemindersThrottles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	interest := fx.CreateInterest(ctx, "fsrc")
	member := fx.CreateMember(ctx, interest.ID, "Lin", "Maya", "maya@example.com")
	position := fx.CreatePosition(ctx, interest.ID, "Race Director")
	fx.AssignPosition(ctx, interest.ID, member.ID, position.ID,
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC))
	tag := fx.CreateTag(ctx, interest.ID, "board", position.ID)
	fx.CreateTemplate(ctx, interest.ID, TemplateReportReminder,
		"Report due: {{.Purpose}}", "<p>{{.Name}}, your report for {{.Date}} is due.</p>")

	meetings := meetingstore.New(db)
	_, err := meetings.Create(ctx, models.Meeting{
		InterestID:         interest.ID,
		Purpose:            "Board Meeting",
		Date:               time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
		TagIDs:             []primitive.ObjectID{tag.ID},
		StatusReportTagIDs: []primitive.ObjectID{tag.ID},
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}

	sender := &captureSender{}
	svc := newService(t, db, interest, sender)

	now := time.Date(2024, time.August, 20, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	from := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpdateInvites(ctx, from); err != nil {
		t.Fatalf("UpdateInvites() error = %v", err)
	}
	sender.sent = nil

	stats, err := svc.SendReportReminders(ctx, from, 20*time.Hour)
	if err != nil {
		t.Fatalf("SendReportReminders() error = %v", err)
	}
	if stats.Reminded != 1 {
		t.Errorf("Reminded = %d, want 1", stats.Reminded)
	}

	// Within the interval the same member stays quiet.
	now = now.Add(time.Hour)
	stats, err = svc.SendReportReminders(ctx, from, 20*time.Hour)
	if err != nil {
		t.Fatalf("second SendReportReminders() error = %v", err)
	}
	if stats.Throttled != 1 || stats.Reminded != 0 {
		t.Errorf("second run reminded=%d throttled=%d, want 0/1", stats.Reminded, stats.Throttled)
	}

	// Past the interval the reminder repeats.
	now = now.Add(24 * time.Hour)
	stats, err = svc.SendReportReminders(ctx, from, 20*time.Hour)
	if err != nil {
		t.Fatalf("third SendReportReminders() error = %v", err)
	}
	if stats.Reminded != 1 {
		t.Errorf("third run Reminded = %d, want 1", stats.Reminded)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d reminder emails, want 2", len(sender.sent))
	}
}
