package appointments

import (
	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/pkg/enums"
)

// CreateAppointmentInput carries a booking request. Date and Time are the
// display strings shown to both participants and echoed into notifications.
type CreateAppointmentInput struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	Date      string    `json:"date" validate:"required"`
	Time      string    `json:"time" validate:"required"`
	Reason    *string   `json:"reason,omitempty"`
}

// ListParams configures the appointment listing for one participant.
type ListParams struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Limit  int
	Cursor string
}
