package payloads

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentCreatedEvent signals that an appointment was scheduled. The
// notification consumer fans this out to both participants.
type AppointmentCreatedEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
}

// AppointmentCancelledEvent is emitted when a participant cancels an
// appointment before it happens.
type AppointmentCancelledEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	CancelledAt   time.Time `json:"cancelled_at"`
}
