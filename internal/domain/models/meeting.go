// internal/domain/models/meeting.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite response states.
const (
	InviteResponseNoResponse = "response pending"
	InviteAttending          = "attending"
	InviteNotAttending       = "not attending"
)

// Meeting is a scheduled meeting whose attendees are addressed by tags.
// Agenda handling lives outside this system.
type Meeting struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	Purpose  string    `bson:"purpose" json:"purpose"`
	Date     time.Time `bson:"date" json:"date"`
	Location string    `bson:"location,omitempty" json:"location,omitempty"`

	// TagIDs select the invited audience; StatusReportTagIDs select members
	// asked for a status report ahead of the meeting.
	TagIDs             []primitive.ObjectID `bson:"tag_ids,omitempty" json:"tag_ids,omitempty"`
	StatusReportTagIDs []primitive.ObjectID `bson:"statusreport_tag_ids,omitempty" json:"statusreport_tag_ids,omitempty"`
}

// Invite tracks one member's invitation to a meeting.
type Invite struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	MeetingID  primitive.ObjectID `bson:"meeting_id" json:"meeting_id"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"member_id"`

	Email    string `bson:"email" json:"email"`
	Response string `bson:"response" json:"response"`

	// LastReminded limits how often report reminders go out.
	LastReminded *time.Time `bson:"last_reminded,omitempty" json:"last_reminded,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// StatusReport is a member's report for a meeting; reminder jobs nag until
// Written is set.
type StatusReport struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	MeetingID  primitive.ObjectID `bson:"meeting_id" json:"meeting_id"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"member_id"`

	Position string `bson:"position,omitempty" json:"position,omitempty"`
	Report   string `bson:"report,omitempty" json:"report,omitempty"`
	Written  bool   `bson:"written" json:"written"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
