// internal/domain/models/task.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Period units for task recurrence configuration.
const (
	UnitDays   = "days"
	UnitWeeks  = "weeks"
	UnitMonths = "months"
	UnitYears  = "years"
)

// Period is a calendar quantity, e.g. {6, months}.
type Period struct {
	Qty  int    `bson:"qty" json:"qty"`
	Unit string `bson:"unit" json:"unit"`
}

// TaskGroup is a named bundle of tasks. Groups may reference child groups;
// the child-of relation is expected to be acyclic, and traversal tolerates
// cycles rather than looping.
type TaskGroup struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"name_ci"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	TaskIDs      []primitive.ObjectID `bson:"task_ids,omitempty" json:"task_ids,omitempty"`
	TaskGroupIDs []primitive.ObjectID `bson:"taskgroup_ids,omitempty" json:"taskgroup_ids,omitempty"` // child groups
}

// Task is a unit of work tracked for members. Recurrence is one of four
// disjoint modes, checked in this order: optional, periodic (Period set),
// anniversary (DateOfYear set), one-shot (none of the above).
type Task struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	Name        string  `bson:"name" json:"name"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Priority    float64 `bson:"priority,omitempty" json:"priority,omitempty"`

	IsOptional   bool                `bson:"isoptional" json:"isoptional"`
	IsByPosition bool                `bson:"isbyposition" json:"isbyposition"`
	PositionID   *primitive.ObjectID `bson:"position_id,omitempty" json:"position_id,omitempty"` // meaningful only when IsByPosition

	// Periodic mode: due = completion + Period, warning window = ExpirySoon.
	Period     *Period `bson:"period,omitempty" json:"period,omitempty"`
	ExpirySoon *Period `bson:"expirysoon,omitempty" json:"expirysoon,omitempty"`

	// Anniversary mode: DateOfYear is "MM-DD"; the completion window for a
	// cycle closes ExpiryStarts after that date.
	DateOfYear   string  `bson:"dateofyear,omitempty" json:"dateofyear,omitempty"`
	ExpiryStarts *Period `bson:"expirystarts,omitempty" json:"expirystarts,omitempty"`

	// FieldIDs is the ordered list of input fields captured at completion.
	FieldIDs []primitive.ObjectID `bson:"field_ids,omitempty" json:"field_ids,omitempty"`
}

// Input field types.
const (
	InputTypeText     = "text"
	InputTypeTextArea = "textarea"
	InputTypeDate     = "date"
	InputTypeUpload   = "upload"
	InputTypeSelect   = "select2"
	InputTypeCheckbox = "checkbox"
	InputTypeRadio    = "radio"
	InputTypeDisplay  = "display"
)

// TaskField is a typed input captured when a task is completed.
type TaskField struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	FieldName    string   `bson:"fieldname" json:"fieldname"`
	DisplayLabel string   `bson:"displaylabel,omitempty" json:"displaylabel,omitempty"`
	DisplayValue string   `bson:"displayvalue,omitempty" json:"displayvalue,omitempty"`
	InputType    string   `bson:"inputtype" json:"inputtype"`
	FieldInfo    string   `bson:"fieldinfo,omitempty" json:"fieldinfo,omitempty"`
	FieldOptions []string `bson:"fieldoptions,omitempty" json:"fieldoptions,omitempty"`
	Priority     float64  `bson:"priority,omitempty" json:"priority,omitempty"`
	UploadURL    string   `bson:"uploadurl,omitempty" json:"uploadurl,omitempty"`

	// OverrideCompletion on a date field makes the entered date replace the
	// recorded completion timestamp.
	OverrideCompletion bool `bson:"override_completion" json:"override_completion"`
}
