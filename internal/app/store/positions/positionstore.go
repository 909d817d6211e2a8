// internal/app/store/positions/positionstore.go
package positionstore

import (
	"context"
	"errors"

	"github.com/clubops/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	waffletext "github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	assgn *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("positions"),
		assgn: db.Collection("userpositions"),
	}
}

var (
	ErrNotFound  = errors.New("position not found")
	ErrDuplicate = errors.New("position name already in use")
)

func (s *Store) Create(ctx context.Context, p models.Position) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	p.NameCI = waffletext.Fold(p.Name)
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return p.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Position, error) {
	var p models.Position
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Position{}, ErrNotFound
	}
	return p, err
}

func (s *Store) ListByInterest(ctx context.Context, interestID primitive.ObjectID) ([]models.Position, error) {
	cur, err := s.c.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Position
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assign records a member holding a position over a date range.
func (s *Store) Assign(ctx context.Context, up models.UserPosition) (primitive.ObjectID, error) {
	up.ID = primitive.NewObjectID()
	if _, err := s.assgn.InsertOne(ctx, up); err != nil {
		return primitive.NilObjectID, err
	}
	return up.ID, nil
}

// AssignmentsByMember returns a member's position history sorted ascending
// by start date.
func (s *Store) AssignmentsByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.UserPosition, error) {
	cur, err := s.assgn.Find(ctx, bson.M{"member_id": memberID},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserPosition
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AssignmentsByPosition(ctx context.Context, positionID primitive.ObjectID) ([]models.UserPosition, error) {
	cur, err := s.assgn.Find(ctx, bson.M{"position_id": positionID},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserPosition
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignmentsByInterest loads the whole position history for one interest.
// The evaluator pre-warm pulls everything once rather than querying per
// member.
func (s *Store) AssignmentsByInterest(ctx context.Context, interestID primitive.ObjectID) ([]models.UserPosition, error) {
	cur, err := s.assgn.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserPosition
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
