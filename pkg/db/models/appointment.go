package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/enums"
)

// Appointment links one doctor and one patient at a display date/time.
// Date and Time are stored as the strings shown to users ("2006-01-02",
// "15:04"); notification content substitutes them verbatim.
type Appointment struct {
	ID        uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID  uuid.UUID               `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctorId"`
	PatientID uuid.UUID               `gorm:"column:patient_id;type:uuid;not null;index" json:"patientId"`
	Date      string                  `gorm:"type:text;not null" json:"date"`
	Time      string                  `gorm:"type:text;not null" json:"time"`
	Reason    *string                 `gorm:"column:reason" json:"reason,omitempty"`
	Status    enums.AppointmentStatus `gorm:"type:text;not null;default:'scheduled'" json:"status"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
