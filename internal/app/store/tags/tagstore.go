// internal/app/store/tags/tagstore.go
package tagstore

import (
	"context"
	"errors"

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
	return &Store{c: db.Collection("tags")}
}

var (
	ErrNotFound  = errors.New("tag not found")
	ErrDuplicate = errors.New("tag name already in use")
)

func (s *Store) Create(ctx context.Context, t models.Tag) (primitive.ObjectID, error) {
	t.ID = primitive.NewObjectID()
	t.NameCI = waffletext.Fold(t.Name)
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return t.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.Tag, error) {
	var t models.Tag
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Tag{}, ErrNotFound
	}
	return t, err
}

// ByName resolves a tag case-insensitively; CLI sync commands address tags
// by name.
func (s *Store) ByName(ctx context.Context, interestID primitive.ObjectID, name string) (models.Tag, error) {
	var t models.Tag
	err := s.c.FindOne(ctx, bson.M{"interest_id": interestID, "name_ci": waffletext.Fold(name)}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Tag{}, ErrNotFound
	}
	return t, err
}

func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Tag
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
