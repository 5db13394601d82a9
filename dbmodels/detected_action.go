package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arcadialabs-io/actionbridge/core/types"
)

// DetectedAction is the ledger record for one locally-detected candidate
// action. The composite unique index on (user_id, event_hash) is the natural
// key: the database, not the application, decides which of two concurrent
// submissions of the same observation wins.
type DetectedAction struct {
	ID             string              `gorm:"type:varchar(255);primaryKey" json:"id"`
	UserID         uuid.UUID           `gorm:"type:char(36);not null;uniqueIndex:idx_action_user_event" json:"userId"`
	OrganizationID *uuid.UUID          `gorm:"type:char(36);index" json:"organizationId"`
	Title          string              `gorm:"type:varchar(512);not null" json:"title"`
	Subtitle       *string             `gorm:"type:varchar(1024)" json:"subtitle"`
	ActionType     types.ActionType    `gorm:"type:varchar(64);not null;index" json:"actionType"`
	ActionPayload  types.ActionPayload `gorm:"type:jsonb" json:"actionPayload"`
	EventHash      string              `gorm:"type:varchar(128);not null;uniqueIndex:idx_action_user_event" json:"eventHash"`
	TriggerContext types.ActionPayload `gorm:"type:jsonb" json:"triggerContext"`

	LocalConfidence float64  `gorm:"not null;default:0" json:"localConfidence"`
	CloudConfidence *float64 `json:"cloudConfidence"`

	Status        types.ActionStatus `gorm:"type:varchar(50);not null;index" json:"status"`
	StatusMessage *string            `gorm:"type:text" json:"statusMessage"`
	ResolvedAt    *time.Time         `json:"resolvedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
