// internal/domain/models/interest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interest is the top-level partition. Every other record carries an
// interest_id and queries never cross interests.
type Interest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"` // short name, e.g. "fsrc"
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	// FromEmail is the default sender for reminder mail; an EmailTemplate
	// may override it.
	FromEmail string `bson:"from_email,omitempty" json:"from_email,omitempty"`

	// InitialExpiration is the fallback "expected by" date for tasks that
	// have never been completed and have no position anchor.
	InitialExpiration *time.Time `bson:"initial_expiration,omitempty" json:"initial_expiration,omitempty"`

	// Membership service binding.
	ClubService  string `bson:"club_service,omitempty" json:"club_service,omitempty"` // "registry"
	ServiceID    string `bson:"service_id,omitempty" json:"service_id,omitempty"`     // club id at the service
	ChecklistURL string `bson:"checklist_url,omitempty" json:"checklist_url,omitempty"`

	// StrictPositionCompletion controls whether a by-position completion
	// records the position when the completing user does not hold it.
	// False (the default) records it regardless, matching historical data.
	StrictPositionCompletion bool `bson:"strict_position_completion" json:"strict_position_completion"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
