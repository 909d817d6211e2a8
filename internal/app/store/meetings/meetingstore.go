// internal/app/store/meetings/meetingstore.go
package meetingstore

import (
	"context"
	"errors"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c       *mongo.Collection
	invites *mongo.Collection
	reports *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("meetings"),
		invites: db.Collection("invites"),
		reports: db.Collection("statusreports"),
	}
}

var ErrNotFound = errors.New("meeting not found")

func (s *Store) Create(ctx context.Context, m models.Meeting) (primitive.ObjectID, error) {
	m.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Meeting, error) {
	var m models.Meeting
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Meeting{}, ErrNotFound
	}
	return m, err
}

// Upcoming returns meetings on or after the given date, soonest first.
func (s *Store) Upcoming(ctx context.Context, interestID primitive.ObjectID, from time.Time) ([]models.Meeting, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"interest_id": interestID, "date": bson.M{"$gte": from}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Meeting
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureInvite creates the invite for (meeting, member) if it does not
// already exist, so invite generation can rerun safely.
func (s *Store) EnsureInvite(ctx context.Context, inv models.Invite) (created bool, err error) {
	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.Response = models.InviteResponseNoResponse
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if _, err := s.invites.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) InvitesByMeeting(ctx context.Context, meetingID primitive.ObjectID) ([]models.Invite, error) {
	cur, err := s.invites.Find(ctx, bson.M{"meeting_id": meetingID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invite
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TouchInviteReminder stamps the invite's last reminder time.
func (s *Store) TouchInviteReminder(ctx context.Context, inviteID primitive.ObjectID, at time.Time) error {
	res, err := s.invites.UpdateOne(ctx,
		bson.M{"_id": inviteID},
		bson.M{"$set": bson.M{"last_reminded": at, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureReport creates an empty status report for (meeting, member) unless
// one is already there.
func (s *Store) EnsureReport(ctx context.Context, r models.StatusReport) error {
	_, err := s.reports.UpdateOne(ctx,
		bson.M{"meeting_id": r.MeetingID, "member_id": r.MemberID},
		bson.M{
			"$setOnInsert": bson.M{
				"interest_id": r.InterestID,
				"position":    r.Position,
				"report":      "",
				"written":     false,
				"updated_at":  time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true))
	return err
}

// OpenReports returns status reports not yet written for a meeting.
func (s *Store) OpenReports(ctx context.Context, meetingID primitive.ObjectID) ([]models.StatusReport, error) {
	cur, err := s.reports.Find(ctx, bson.M{"meeting_id": meetingID, "written": false})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StatusReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
