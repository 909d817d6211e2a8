// internal/app/store/tasks/taskstore.go
package taskstore

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
	tasks  *mongo.Collection
	groups *mongo.Collection
	fields *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		tasks:  db.Collection("tasks"),
		groups: db.Collection("taskgroups"),
		fields: db.Collection("taskfields"),
	}
}

var (
	ErrNotFound  = errors.New("task record not found")
	ErrDuplicate = errors.New("task group name already in use")
)

func (s *Store) CreateTask(ctx context.Context, t models.Task) (primitive.ObjectID, error) {
	t.ID = primitive.NewObjectID()
	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		return primitive.NilObjectID, err
	}
	return t.ID, nil
}

func (s *Store) CreateGroup(ctx context.Context, g models.TaskGroup) (primitive.ObjectID, error) {
	g.ID = primitive.NewObjectID()
	g.NameCI = waffletext.Fold(g.Name)
	if _, err := s.groups.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return g.ID, nil
}

func (s *Store) CreateField(ctx context.Context, f models.TaskField) (primitive.ObjectID, error) {
	f.ID = primitive.NewObjectID()
	if _, err := s.fields.InsertOne(ctx, f); err != nil {
		return primitive.NilObjectID, err
	}
	return f.ID, nil
}

func (s *Store) TaskByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, ErrNotFound
	}
	return t, err
}

// ListTasks, ListGroups and ListFields load the full task configuration for
// one interest. Commands call them once at start and evaluate against the
// snapshot.
func (s *Store) ListTasks(ctx context.Context, interestID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListGroups(ctx context.Context, interestID primitive.ObjectID) ([]models.TaskGroup, error) {
	cur, err := s.groups.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TaskGroup
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListFields(ctx context.Context, interestID primitive.ObjectID) ([]models.TaskField, error) {
	cur, err := s.fields.Find(ctx, bson.M{"interest_id": interestID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TaskField
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldsByIDs resolves a task's ordered field id list to definitions,
// preserving order.
func (s *Store) FieldsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TaskField, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.fields.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	byID := make(map[primitive.ObjectID]models.TaskField, len(ids))
	for cur.Next(ctx) {
		var f models.TaskField
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		byID[f.ID] = f
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]models.TaskField, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}
