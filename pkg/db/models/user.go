package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/enums"
)

// User mirrors the directory entry kept for every identity-provider account.
// Credentials never live here; the external provider owns authentication and
// this table only maps its subject onto an application role and profile.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuthSubject string         `gorm:"column:auth_subject;type:text;not null;uniqueIndex"`
	Email       string         `gorm:"type:text;not null;uniqueIndex"`
	FirstName   string         `gorm:"column:first_name;not null"`
	LastName    string         `gorm:"column:last_name;not null"`
	Role        enums.UserRole `gorm:"type:text;not null"`
	Specialty   *string        `gorm:"column:specialty"`
	Phone       *string        `gorm:"column:phone"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
