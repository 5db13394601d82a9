package models

import (
	"time"

	"github.com/google/uuid"
)

const IntegrationStatusActive = "ACTIVE"

// UserIntegration is a user's link to a third-party toolkit, established and
// revoked by the integrations service. This core only ever reads it.
type UserIntegration struct {
	ID                 uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:char(36);index;not null" json:"userId"`
	ToolkitSlug        string    `gorm:"type:varchar(64);not null;index" json:"toolkitSlug"`
	ConnectedAccountID string    `gorm:"type:varchar(255);not null" json:"connectedAccountId"`
	Status             string    `gorm:"type:varchar(50);not null;index" json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
