package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExecutionLog is an audit row written for every execute attempt, successful
// or not, keyed back to the detected action it ran.
type ExecutionLog struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ActionID   string    `gorm:"type:varchar(255);index;not null" json:"actionId"`
	UserID     uuid.UUID `gorm:"type:char(36);index;not null" json:"userId"`
	ActionType string    `gorm:"type:varchar(64);not null;index" json:"actionType"`
	Status     string    `gorm:"type:varchar(50);not null;index" json:"status"` // "success" or "error"
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (e *ExecutionLog) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
