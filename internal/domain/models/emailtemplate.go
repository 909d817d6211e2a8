// internal/domain/models/emailtemplate.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Well-known template names used by the reminder orchestrator.
const (
	TemplateMemberEmail = "member-email"
	TemplateLeaderEmail = "leader-email"
)

// EmailTemplate is a named html/template body with subject. FromEmail, when
// set, overrides the interest's from address.
type EmailTemplate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID primitive.ObjectID `bson:"interest_id" json:"interest_id"`

	TemplateName string `bson:"templatename" json:"templatename"`
	Subject      string `bson:"subject" json:"subject"`
	Template     string `bson:"template" json:"template"`
	FromEmail    string `bson:"from_email,omitempty" json:"from_email,omitempty"`
}

// TableUpdateTime records when an externally sourced table was last
// refreshed, per interest.
type TableUpdateTime struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterestID  primitive.ObjectID `bson:"interest_id" json:"interest_id"`
	TableName   string             `bson:"tablename" json:"tablename"`
	LastChecked primitive.DateTime `bson:"lastchecked" json:"lastchecked"`
}
