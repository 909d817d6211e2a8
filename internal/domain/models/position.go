// internal/domain/models/position.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Position is a role within an interest. TaskGroupIDs drive what holders of
// the position must do; EmailGroupIDs designate holders as the responsible
// managers for members performing those groups' tasks.
type Position struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"name_ci"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	TaskGroupIDs  []primitive.ObjectID `bson:"taskgroup_ids,omitempty" json:"taskgroup_ids,omitempty"`
	EmailGroupIDs []primitive.ObjectID `bson:"emailgroup_ids,omitempty" json:"emailgroup_ids,omitempty"`
	TagIDs        []primitive.ObjectID `bson:"tag_ids,omitempty" json:"tag_ids,omitempty"`
}

// UserPosition assigns a member to a position for a date range. A nil
// FinishDate means the assignment is open-ended.
type UserPosition struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"member_id"`
	PositionID primitive.ObjectID `bson:"position_id" json:"position_id"`

	StartDate  time.Time  `bson:"start_date" json:"start_date"`
	FinishDate *time.Time `bson:"finish_date,omitempty" json:"finish_date,omitempty"`
	Qualifier  string     `bson:"qualifier,omitempty" json:"qualifier,omitempty"`
}

// ActiveOn reports whether the assignment covers the given date.
func (up UserPosition) ActiveOn(d time.Time) bool {
	if d.Before(up.StartDate) {
		return false
	}
	if up.FinishDate != nil && d.After(*up.FinishDate) {
		return false
	}
	return true
}
