// internal/app/store/members/datestore.go
package memberstore

import (
	"context"

	"github.com/clubops/memberhub/internal/app/system/txn"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemberDates and Membership operations live on the same store because the
// reconciler always touches all three collections inside one unit of work.

// DatesByMember returns a member's spans sorted ascending by start date.
func (s *Store) DatesByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.MemberDates, error) {
	cur, err := s.dates.Find(ctx, bson.M{"member_id": memberID},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MemberDates
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertDates(ctx context.Context, d models.MemberDates) (primitive.ObjectID, error) {
	d.ID = primitive.NewObjectID()
	if _, err := s.dates.InsertOne(ctx, d); err != nil {
		return primitive.NilObjectID, err
	}
	return d.ID, nil
}

func (s *Store) UpdateDates(ctx context.Context, d models.MemberDates) error {
	res, err := s.dates.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDates(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.dates.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// MembershipsByMember returns all external membership rows for a member.
func (s *Store) MembershipsByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.mship.Find(ctx, bson.M{"member_id": memberID},
		options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) MembershipsByDates(ctx context.Context, datesID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.mship.Find(ctx, bson.M{"memberdates_id": datesID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountMembershipsByDates(ctx context.Context, datesID primitive.ObjectID) (int64, error) {
	return s.mship.CountDocuments(ctx, bson.M{"memberdates_id": datesID})
}

func (s *Store) InsertMembership(ctx context.Context, m models.Membership) (primitive.ObjectID, error) {
	m.ID = primitive.NewObjectID()
	m.Version = 1
	if _, err := s.mship.InsertOne(ctx, m); err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

// UpdateMembership is version checked like Store.Update.
func (s *Store) UpdateMembership(ctx context.Context, m models.Membership) error {
	res, err := s.mship.UpdateOne(ctx,
		bson.M{"_id": m.ID, "version": m.Version},
		bson.M{
			"$set": bson.M{
				"member_id":         m.MemberID,
				"memberdates_id":    m.MemberDatesID,
				"svc_member_id":     m.SvcMemberID,
				"svc_membership_id": m.SvcMembershipID,
				"membershiptype":    m.MembershipType,
				"hometown":          m.Hometown,
				"email":             m.Email,
				"start_date":        m.StartDate,
				"end_date":          m.EndDate,
				"primary":           m.Primary,
				"last_modified":     m.LastModified,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return txn.ErrVersionConflict
	}
	return nil
}

// RetargetMemberships moves every membership owned by one span onto another.
// Used when adjacent spans merge.
func (s *Store) RetargetMemberships(ctx context.Context, fromDatesID, toDatesID primitive.ObjectID) (int64, error) {
	res, err := s.mship.UpdateMany(ctx,
		bson.M{"memberdates_id": fromDatesID},
		bson.M{"$set": bson.M{"memberdates_id": toDatesID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) DeleteMembership(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.mship.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
