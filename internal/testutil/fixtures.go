// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert %s fixture: %v", coll, err)
	}
}

// CreateInterest creates a test interest with the given short name.
func (f *Fixtures) CreateInterest(ctx context.Context, name string) models.Interest {
	f.t.Helper()

	now := time.Now().UTC()
	in := models.Interest{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		FromEmail: name + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "interests", in)
	return in
}

// CreateMember creates an active test member.
func (f *Fixtures) CreateMember(ctx context.Context, interestID primitive.ObjectID, family, given, email string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:         primitive.NewObjectID(),
		InterestID: interestID,
		FamilyName: family,
		GivenName:  given,
		Gender:     "Female",
		DOB:        time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:      email,
		Active:     true,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "members", m)
	return m
}

// CreatePosition creates a test position carrying the given task groups.
func (f *Fixtures) CreatePosition(ctx context.Context, interestID primitive.ObjectID, name string, taskGroupIDs ...primitive.ObjectID) models.Position {
	f.t.Helper()

	p := models.Position{
		ID:           primitive.NewObjectID(),
		InterestID:   interestID,
		Name:         name,
		NameCI:       text.Fold(name),
		TaskGroupIDs: taskGroupIDs,
	}
	f.insert(ctx, "positions", p)
	return p
}

// AssignPosition gives a member an open-ended position assignment starting
// at the given date.
func (f *Fixtures) AssignPosition(ctx context.Context, interestID, memberID, positionID primitive.ObjectID, start time.Time) models.UserPosition {
	f.t.Helper()

	up := models.UserPosition{
		ID:         primitive.NewObjectID(),
		InterestID: interestID,
		MemberID:   memberID,
		PositionID: positionID,
		StartDate:  start,
	}
	f.insert(ctx, "userpositions", up)
	return up
}

// CreateTaskGroup creates a task group containing the given tasks.
func (f *Fixtures) CreateTaskGroup(ctx context.Context, interestID primitive.ObjectID, name string, taskIDs ...primitive.ObjectID) models.TaskGroup {
	f.t.Helper()

	g := models.TaskGroup{
		ID:         primitive.NewObjectID(),
		InterestID: interestID,
		Name:       name,
		NameCI:     text.Fold(name),
		TaskIDs:    taskIDs,
	}
	f.insert(ctx, "taskgroups", g)
	return g
}

// CreateTask creates a one-shot task; callers tweak recurrence fields and
// re-insert via CreateTaskFrom when they need other modes.
func (f *Fixtures) CreateTask(ctx context.Context, interestID primitive.ObjectID, name string) models.Task {
	f.t.Helper()
	return f.CreateTaskFrom(ctx, models.Task{InterestID: interestID, Name: name})
}

// CreateTaskFrom inserts the given task, assigning an id.
func (f *Fixtures) CreateTaskFrom(ctx context.Context, t models.Task) models.Task {
	f.t.Helper()

	t.ID = primitive.NewObjectID()
	f.insert(ctx, "tasks", t)
	return t
}

// CreateTaskField inserts a field definition.
func (f *Fixtures) CreateTaskField(ctx context.Context, interestID primitive.ObjectID, name, inputType string) models.TaskField {
	f.t.Helper()

	tf := models.TaskField{
		ID:         primitive.NewObjectID(),
		InterestID: interestID,
		FieldName:  name,
		InputType:  inputType,
	}
	f.insert(ctx, "taskfields", tf)
	return tf
}

// CreateTag creates a tag over the given positions.
func (f *Fixtures) CreateTag(ctx context.Context, interestID primitive.ObjectID, name string, positionIDs ...primitive.ObjectID) models.Tag {
	f.t.Helper()

	tag := models.Tag{
		ID:          primitive.NewObjectID(),
		InterestID:  interestID,
		Name:        name,
		NameCI:      text.Fold(name),
		PositionIDs: positionIDs,
	}
	f.insert(ctx, "tags", tag)
	return tag
}

// CreateTemplate inserts a named email template.
func (f *Fixtures) CreateTemplate(ctx context.Context, interestID primitive.ObjectID, name, subject, body string) models.EmailTemplate {
	f.t.Helper()

	et := models.EmailTemplate{
		ID:           primitive.NewObjectID(),
		InterestID:   interestID,
		TemplateName: name,
		Subject:      subject,
		Template:     body,
	}
	f.insert(ctx, "email_templates", et)
	return et
}
