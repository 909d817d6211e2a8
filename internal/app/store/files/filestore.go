// internal/app/store/files/filestore.go
package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("files")}
}

var (
	ErrNotFound  = errors.New("file not found")
	ErrDuplicate = errors.New("file id already recorded")
)

// Create registers an uploaded file and returns the uuid handle handed back
// to the uploader. The file is unbound until a completion claims it.
func (s *Store) Create(ctx context.Context, interestID primitive.ObjectID, filename, mimeType string) (string, error) {
	f := models.File{
		ID:         primitive.NewObjectID(),
		InterestID: interestID,
		FileID:     uuid.NewString(),
		Filename:   filename,
		MimeType:   mimeType,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return f.FileID, nil
}

func (s *Store) ByFileID(ctx context.Context, fileID string) (models.File, error) {
	var f models.File
	err := s.c.FindOne(ctx, bson.M{"fileid": fileID}).Decode(&f)
	if err == mongo.ErrNoDocuments {
		return models.File{}, ErrNotFound
	}
	return f, err
}

// ByCompletion returns the files bound to one completion.
func (s *Store) ByCompletion(ctx context.Context, completionID primitive.ObjectID) ([]models.File, error) {
	cur, err := s.c.Find(ctx, bson.M{"taskcompletion_id": completionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.File
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
