// internal/app/store/completions/completionstore.go
package completionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c      *mongo.Collection
	fields *mongo.Collection
	files  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("task_completions"),
		fields: db.Collection("inputfielddata"),
		files:  db.Collection("files"),
	}
}

var ErrFileNotFound = errors.New("uploaded file not found")

// Latest returns the newest completion visible to a member for a task, or
// nil when the task has never been completed.
//
// By-position tasks share completions: any holder's completion is keyed by
// (task, position) and applies to every holder, so the member is not part
// of the lookup.
func (s *Store) Latest(ctx context.Context, task models.Task, memberID primitive.ObjectID) (*models.TaskCompletion, error) {
	filter := bson.M{"task_id": task.ID, "member_id": memberID}
	if task.IsByPosition && task.PositionID != nil {
		filter = bson.M{"task_id": task.ID, "position_id": *task.PositionID}
	}

	var tc models.TaskCompletion
	err := s.c.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "update_time", Value: -1}})).Decode(&tc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// RecordInput carries everything Record needs. Values is the submitted
// field map keyed by field name; the legacy form encoding appended "-val"
// to the name, so that key is tried as a fallback.
type RecordInput struct {
	Interest models.Interest
	Task     models.Task
	Fields   []models.TaskField // task's field definitions, in order
	MemberID primitive.ObjectID
	ByUserID primitive.ObjectID
	Values   map[string]string

	// HoldsPosition reports whether MemberID currently holds
	// Task.PositionID. Only consulted for by-position tasks when the
	// interest requires strict position completion.
	HoldsPosition bool
}

func fieldValue(values map[string]string, name string) (string, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[name+"-val"]
	return v, ok
}

// Record inserts a completion event plus its captured field values.
//
// The member is always the completing user. For by-position tasks the
// position is recorded too, so the event is shared by every holder. When
// the interest sets strict position completion, the position is recorded
// only if the completer actually holds it.
func (s *Store) Record(ctx context.Context, in RecordInput) (models.TaskCompletion, error) {
	now := time.Now().UTC()

	tc := models.TaskCompletion{
		ID:         primitive.NewObjectID(),
		InterestID: in.Task.InterestID,
		TaskID:     in.Task.ID,
		MemberID:   in.MemberID,
		Completion: now,
		UpdateTime: now,
		UpdatedBy:  in.ByUserID,
	}
	if in.Task.IsByPosition && in.Task.PositionID != nil {
		if !in.Interest.StrictPositionCompletion || in.HoldsPosition {
			pid := *in.Task.PositionID
			tc.PositionID = &pid
		}
	}

	// A date field with override_completion replaces the recorded
	// completion timestamp. Resolve it before inserting.
	for _, f := range in.Fields {
		if f.InputType != models.InputTypeDate || !f.OverrideCompletion {
			continue
		}
		v, ok := fieldValue(in.Values, f.FieldName)
		if !ok || v == "" {
			continue
		}
		d, err := dateutil.ParseDate(v)
		if err != nil {
			return models.TaskCompletion{}, fmt.Errorf("field %s: %w", f.FieldName, err)
		}
		tc.Completion = d
	}

	if _, err := s.c.InsertOne(ctx, tc); err != nil {
		return models.TaskCompletion{}, err
	}

	for _, f := range in.Fields {
		if f.InputType == models.InputTypeDisplay {
			continue
		}
		v, ok := fieldValue(in.Values, f.FieldName)
		if !ok {
			continue
		}

		ifd := models.InputFieldData{
			ID:               primitive.NewObjectID(),
			FieldID:          f.ID,
			TaskCompletionID: tc.ID,
			Value:            v,
		}
		if _, err := s.fields.InsertOne(ctx, ifd); err != nil {
			return models.TaskCompletion{}, err
		}

		if f.InputType == models.InputTypeUpload && v != "" {
			if err := s.bindFile(ctx, v, tc.ID); err != nil {
				return models.TaskCompletion{}, err
			}
		}
	}

	return tc, nil
}

// bindFile attaches an uploaded file (by its uuid handle) to a completion.
func (s *Store) bindFile(ctx context.Context, fileID string, completionID primitive.ObjectID) error {
	res, err := s.files.UpdateOne(ctx,
		bson.M{"fileid": fileID},
		bson.M{"$set": bson.M{"taskcompletion_id": completionID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	return nil
}

// FieldData returns the captured values for one completion.
func (s *Store) FieldData(ctx context.Context, completionID primitive.ObjectID) ([]models.InputFieldData, error) {
	cur, err := s.fields.Find(ctx, bson.M{"taskcompletion_id": completionID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InputFieldData
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestByMember loads every member's newest completion per task in one
// pass, for the evaluator pre-warm. By-position completions are keyed by
// position id instead of member id; the caller indexes them via the task's
// position.
type LatestSet struct {
	ByMember   map[[2]primitive.ObjectID]models.TaskCompletion // (task, member)
	ByPosition map[[2]primitive.ObjectID]models.TaskCompletion // (task, position)
}

// Lookup resolves the latest completion for (task, member) from a warmed
// set, applying the by-position sharing rule.
func (ls LatestSet) Lookup(task models.Task, memberID primitive.ObjectID) *models.TaskCompletion {
	if task.IsByPosition && task.PositionID != nil {
		if tc, ok := ls.ByPosition[[2]primitive.ObjectID{task.ID, *task.PositionID}]; ok {
			return &tc
		}
		return nil
	}
	if tc, ok := ls.ByMember[[2]primitive.ObjectID{task.ID, memberID}]; ok {
		return &tc
	}
	return nil
}

// WarmLatest scans completions for an interest newest-first and keeps the
// first event seen per key.
func (s *Store) WarmLatest(ctx context.Context, interestID primitive.ObjectID) (LatestSet, error) {
	ls := LatestSet{
		ByMember:   make(map[[2]primitive.ObjectID]models.TaskCompletion),
		ByPosition: make(map[[2]primitive.ObjectID]models.TaskCompletion),
	}

	cur, err := s.c.Find(ctx, bson.M{"interest_id": interestID},
		options.Find().SetSort(bson.D{{Key: "update_time", Value: -1}}))
	if err != nil {
		return ls, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var tc models.TaskCompletion
		if err := cur.Decode(&tc); err != nil {
			return ls, err
		}
		mk := [2]primitive.ObjectID{tc.TaskID, tc.MemberID}
		if _, ok := ls.ByMember[mk]; !ok {
			ls.ByMember[mk] = tc
		}
		if tc.PositionID != nil {
			pk := [2]primitive.ObjectID{tc.TaskID, *tc.PositionID}
			if _, ok := ls.ByPosition[pk]; !ok {
				ls.ByPosition[pk] = tc
			}
		}
	}
	return ls, cur.Err()
}
