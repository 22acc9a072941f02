package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one recipient's copy of an event. Fan-out to several users
// creates several independent rows; each recipient toggles Read on their own
// copy only. CreatedAt is assigned by the writer at commit time and never
// accepted from clients so retention and ordering cannot be skewed.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"column:recipient_id;type:uuid;not null;index:idx_notifications_recipient_created,priority:1" json:"recipientId"`
	Title       string    `gorm:"type:text;not null;default:''" json:"title"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;index:idx_notifications_recipient_created,priority:2" json:"timestamp"`
}
