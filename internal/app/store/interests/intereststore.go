// internal/app/store/interests/intereststore.go
package intereststore

import (
	"context"
	"errors"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	waffletext "github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("interests")}
}

var (
	ErrNotFound  = errors.New("interest not found")
	ErrDuplicate = errors.New("interest name already in use")
)

func (s *Store) Create(ctx context.Context, in models.Interest) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	in.ID = primitive.NewObjectID()
	in.NameCI = waffletext.Fold(in.Name)
	in.CreatedAt = now
	in.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, in); err != nil {
		if wafflemongo.IsDup(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return in.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Interest, error) {
	var in models.Interest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&in)
	if err == mongo.ErrNoDocuments {
		return models.Interest{}, ErrNotFound
	}
	return in, err
}

// ByName looks up an interest by its short name. This is the entrypoint for
// every CLI command, which addresses interests by name.
func (s *Store) ByName(ctx context.Context, name string) (models.Interest, error) {
	var in models.Interest
	err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&in)
	if err == mongo.ErrNoDocuments {
		return models.Interest{}, ErrNotFound
	}
	return in, err
}

func (s *Store) Update(ctx context.Context, in models.Interest) error {
	in.NameCI = waffletext.Fold(in.Name)
	in.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": in.ID}, in)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
