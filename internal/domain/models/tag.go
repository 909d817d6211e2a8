// internal/domain/models/tag.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag labels positions and members so notification audiences and group
// syncs can address them as a set.
type Tag struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"name_ci"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	PositionIDs []primitive.ObjectID `bson:"position_ids,omitempty" json:"position_ids,omitempty"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids,omitempty" json:"member_ids,omitempty"`
}
