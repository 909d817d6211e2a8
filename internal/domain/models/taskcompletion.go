// internal/domain/models/taskcompletion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskCompletion is one completion event. MemberID is always the completing
// user; PositionID is set as well for by-position tasks, in which case the
// completion is shared by every holder of that position.
type TaskCompletion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	TaskID     primitive.ObjectID `bson:"task_id" json:"task_id"`

	MemberID   primitive.ObjectID  `bson:"member_id" json:"member_id"`
	PositionID *primitive.ObjectID `bson:"position_id,omitempty" json:"position_id,omitempty"`

	// Completion is when the work was done; a date field with
	// override_completion replaces it. UpdateTime orders events.
	Completion time.Time          `bson:"completion" json:"completion"`
	UpdateTime time.Time          `bson:"update_time" json:"update_time"`
	UpdatedBy  primitive.ObjectID `bson:"updated_by" json:"updated_by"`
}

// InputFieldData holds one field value captured with a completion.
type InputFieldData struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FieldID          primitive.ObjectID `bson:"field_id" json:"field_id"`
	TaskCompletionID primitive.ObjectID `bson:"taskcompletion_id" json:"taskcompletion_id"`
	Value            string             `bson:"value,omitempty" json:"value,omitempty"`
}

// File is an uploaded document, bound to a completion when the upload field
// is saved.
type File struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	FileID   string `bson:"fileid" json:"fileid"` // uuid handed to the uploader
	Filename string `bson:"filename" json:"filename"`
	MimeType string `bson:"mimetype,omitempty" json:"mimetype,omitempty"`

	TaskCompletionID *primitive.ObjectID `bson:"taskcompletion_id,omitempty" json:"taskcompletion_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
