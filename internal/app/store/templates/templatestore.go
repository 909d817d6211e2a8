// internal/app/store/templates/templatestore.go
package templatestore

import (
	"context"
	"errors"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c     *mongo.Collection
	times *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("email_templates"),
		times: db.Collection("table_update_times"),
	}
}

var ErrNotFound = errors.New("email template not found")

// ByName fetches the named template for an interest, e.g. "member-email".
func (s *Store) ByName(ctx context.Context, interestID primitive.ObjectID, name string) (models.EmailTemplate, error) {
	var et models.EmailTemplate
	err := s.c.FindOne(ctx, bson.M{"interest_id": interestID, "templatename": name}).Decode(&et)
	if err == mongo.ErrNoDocuments {
		return models.EmailTemplate{}, ErrNotFound
	}
	return et, err
}

func (s *Store) Upsert(ctx context.Context, et models.EmailTemplate) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"interest_id": et.InterestID, "templatename": et.TemplateName},
		bson.M{"$set": bson.M{
			"subject":    et.Subject,
			"template":   et.Template,
			"from_email": et.FromEmail,
		}},
		options.Update().SetUpsert(true))
	return err
}

// StampTableUpdate records that an externally sourced table was refreshed.
func (s *Store) StampTableUpdate(ctx context.Context, interestID primitive.ObjectID, table string) error {
	_, err := s.times.UpdateOne(ctx,
		bson.M{"interest_id": interestID, "tablename": table},
		bson.M{"$set": bson.M{"lastchecked": primitive.NewDateTimeFromTime(time.Now().UTC())}},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) TableUpdateTime(ctx context.Context, interestID primitive.ObjectID, table string) (time.Time, error) {
	var row models.TableUpdateTime
	err := s.times.FindOne(ctx, bson.M{"interest_id": interestID, "tablename": table}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return row.LastChecked.Time(), nil
}
