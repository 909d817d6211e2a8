// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a person known to membership ingestion. Members are created by
// the reconciler and never deleted; discontiguous membership history hangs
// off MemberDates records.
type Member struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	FamilyName string    `bson:"family_name" json:"family_name"`
	GivenName  string    `bson:"given_name" json:"given_name"`
	MiddleName string    `bson:"middle_name,omitempty" json:"middle_name,omitempty"`
	Gender     string    `bson:"gender" json:"gender"` // Male | Female | Non-binary
	DOB        time.Time `bson:"dob" json:"dob"`

	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Hometown string `bson:"hometown,omitempty" json:"hometown,omitempty"`

	// SvcMemberID is the member's id at the external registry. Compared
	// case-sensitively.
	SvcMemberID string `bson:"svc_member_id,omitempty" json:"svc_member_id,omitempty"`

	// Active marks members who participate in leadership task tracking.
	Active bool `bson:"active" json:"active"`

	// TaskGroupIDs are task groups attached directly to the member, in
	// addition to those derived from positions.
	TaskGroupIDs []primitive.ObjectID `bson:"taskgroup_ids,omitempty" json:"taskgroup_ids,omitempty"`

	// Version supports optimistic concurrency; incremented on every write.
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberDates is one contiguous membership span for a member. Spans for a
// member never overlap and are separated by at least one day.
type MemberDates struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	MemberID   primitive.ObjectID `bson:"member_id" json:"member_id"`

	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
}

// Membership is a single external membership row. (svc_member_id,
// svc_membership_id) is unique within a member.
type Membership struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID    primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	MemberID      primitive.ObjectID `bson:"member_id" json:"member_id"`
	MemberDatesID primitive.ObjectID `bson:"memberdates_id" json:"memberdates_id"`

	SvcMemberID     string `bson:"svc_member_id" json:"svc_member_id"`
	SvcMembershipID string `bson:"svc_membership_id" json:"svc_membership_id"`
	MembershipType  string `bson:"membershiptype,omitempty" json:"membershiptype,omitempty"`
	Hometown        string `bson:"hometown,omitempty" json:"hometown,omitempty"`
	Email           string `bson:"email,omitempty" json:"email,omitempty"`

	StartDate    time.Time `bson:"start_date" json:"start_date"`
	EndDate      time.Time `bson:"end_date" json:"end_date"`
	Primary      bool      `bson:"primary" json:"primary"`
	LastModified time.Time `bson:"last_modified" json:"last_modified"`

	Version int64 `bson:"version" json:"version"`
}
