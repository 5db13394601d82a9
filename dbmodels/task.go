package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is an internal task row created by the task_create executor. No
// external integration is involved; the task surfaces in the user's task list.
type Task struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:char(36);index;not null" json:"userId"`
	OrganizationID *uuid.UUID `gorm:"type:char(36);index" json:"organizationId"`
	Title          string     `gorm:"type:varchar(512);not null" json:"title"`
	Description    *string    `gorm:"type:text" json:"description"`
	Status         string     `gorm:"type:varchar(50);not null;default:pending" json:"status"`
	Priority       string     `gorm:"type:varchar(20);not null;default:medium" json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
	Source         string     `gorm:"type:varchar(64);not null" json:"source"`
	SourceRefID    *string    `gorm:"type:varchar(255)" json:"sourceRefId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
