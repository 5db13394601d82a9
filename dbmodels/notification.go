package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a user-facing reminder created by the reminder executor.
// Delivery is handled by the notification service outside this core.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:char(36);index;not null" json:"userId"`
	Title     string     `gorm:"type:varchar(512);not null" json:"title"`
	Body      *string    `gorm:"type:text" json:"body"`
	RemindAt  *time.Time `json:"remindAt"`
	Source    string     `gorm:"type:varchar(64);not null" json:"source"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
