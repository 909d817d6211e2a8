// internal/app/store/members/memberstore.go
package memberstore

// Terminology: Member Identifiers
//   - MemberID / member_id: the MongoDB ObjectID (_id) of a member record
//   - SvcMemberID / svc_member_id: the member's id at the external registry

import (
	"context"
	"errors"
	"time"

	"github.com/clubops/memberhub/internal/app/system/txn"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	dates *mongo.Collection
	mship *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("members"),
		dates: db.Collection("memberdates"),
		mship: db.Collection("memberships"),
	}
}

var ErrNotFound = errors.New("member not found")

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	return m, err
}

// FindIdentity locates a member by the natural identity key used during
// reconciliation. Name comparison is exact; ingestion normalizes first.
func (s *Store) FindIdentity(ctx context.Context, interestID primitive.ObjectID, family, given, gender string, dob time.Time) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{
		"interest_id": interestID,
		"family_name": family,
		"given_name":  given,
		"gender":      gender,
		"dob":         dob,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	return m, err
}

func (s *Store) FindBySvcMemberID(ctx context.Context, interestID primitive.ObjectID, svcMemberID string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{
		"interest_id":   interestID,
		"svc_member_id": svcMemberID,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	return m, err
}

func (s *Store) Insert(ctx context.Context, m models.Member) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

// Update writes the member back under optimistic concurrency. The filter
// matches the version the caller read; a miss means another writer won and
// the unit of work should fail with ErrVersionConflict.
func (s *Store) Update(ctx context.Context, m models.Member) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": m.ID, "version": m.Version},
		bson.M{
			"$set": bson.M{
				"family_name":   m.FamilyName,
				"given_name":    m.GivenName,
				"middle_name":   m.MiddleName,
				"gender":        m.Gender,
				"dob":           m.DOB,
				"email":         m.Email,
				"hometown":      m.Hometown,
				"svc_member_id": m.SvcMemberID,
				"active":        m.Active,
				"taskgroup_ids": m.TaskGroupIDs,
				"updated_at":    time.Now().UTC(),
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

// ListActive returns members flagged for leadership task tracking.
func (s *Store) ListActive(ctx context.Context, interestID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"interest_id": interestID, "active": true},
		options.Find().SetSort(bson.D{{Key: "family_name", Value: 1}, {Key: "given_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByInterest(ctx context.Context, interestID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
