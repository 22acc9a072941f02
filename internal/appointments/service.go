package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/internal/users"
	"github.com/mvergara/caresched-backend/pkg/db/models"
	"github.com/mvergara/caresched-backend/pkg/enums"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
	"github.com/mvergara/caresched-backend/pkg/outbox"
	"github.com/mvergara/caresched-backend/pkg/outbox/payloads"
	"github.com/mvergara/caresched-backend/pkg/pagination"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines scheduling operations.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, input CreateAppointmentInput) (*models.Appointment, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Cancel(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) error
	Complete(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) error
}

type service struct {
	repo   Repository
	users  users.Repository
	tx     txRunner
	outbox outboxPublisher
}

// ListResult wraps returned appointments and the cursor for the next page.
type ListResult struct {
	Items  []models.Appointment `json:"items"`
	Cursor string               `json:"cursor"`
}

// NewService builds an appointments service with the required dependencies.
func NewService(repo Repository, userRepo users.Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("appointments repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		users:  userRepo,
		tx:     tx,
		outbox: outboxSvc,
	}, nil
}

// Create books an appointment and queues the created event in the same
// transaction, so notification fan-out never fires for a rolled-back booking.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateAppointmentInput) (*models.Appointment, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if actorID != input.DoctorID && actorID != input.PatientID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "appointments can only be booked for yourself")
	}

	doctor, err := s.resolveParticipant(ctx, input.DoctorID, enums.UserRoleDoctor)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolveParticipant(ctx, input.PatientID, enums.UserRolePatient)
	if err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Date:      input.Date,
		Time:      input.Time,
		Reason:    input.Reason,
		Status:    enums.AppointmentStatusScheduled,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, appointment); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAppointmentCreated,
			AggregateType: enums.AggregateAppointment,
			AggregateID:   appointment.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Version:       1,
			Data: payloads.AppointmentCreatedEvent{
				AppointmentID: appointment.ID,
				DoctorID:      appointment.DoctorID,
				PatientID:     appointment.PatientID,
				Date:          appointment.Date,
				Time:          appointment.Time,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create appointment")
	}
	return appointment, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listAppointmentsParams{
		UserID: params.UserID,
		Role:   params.Role,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListForUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// Cancel moves a scheduled appointment to cancelled and queues the
// cancellation event. Either participant may cancel.
func (s *service) Cancel(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) error {
	appointment, err := s.loadForActor(ctx, actorID, appointmentID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateStatus(ctx, appointmentID, enums.AppointmentStatusScheduled, enums.AppointmentStatusCancelled)
		if err != nil {
			return err
		}
		if updated == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "appointment is no longer scheduled")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAppointmentCancelled,
			AggregateType: enums.AggregateAppointment,
			AggregateID:   appointmentID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Version:       1,
			Data: payloads.AppointmentCancelledEvent{
				AppointmentID: appointmentID,
				DoctorID:      appointment.DoctorID,
				PatientID:     appointment.PatientID,
				CancelledBy:   actorID,
				CancelledAt:   time.Now().UTC(),
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel appointment")
	}
	return nil
}

// Complete marks a scheduled appointment as completed. Only the doctor may do it.
func (s *service) Complete(ctx context.Context, actorID uuid.UUID, appointmentID uuid.UUID) error {
	appointment, err := s.loadForActor(ctx, actorID, appointmentID)
	if err != nil {
		return err
	}
	if appointment.DoctorID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the doctor can complete an appointment")
	}

	updated, err := s.repo.UpdateStatus(ctx, appointmentID, enums.AppointmentStatusScheduled, enums.AppointmentStatusCompleted)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete appointment")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "appointment is no longer scheduled")
	}
	return nil
}

func (s *service) loadForActor(ctx context.Context, actorID, appointmentID uuid.UUID) (*models.Appointment, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if appointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id required")
	}

	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
	}
	if appointment.DoctorID != actorID && appointment.PatientID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "appointment belongs to another user")
	}
	return appointment, nil
}

func (s *service) resolveParticipant(ctx context.Context, id uuid.UUID, role enums.UserRole) (*models.User, error) {
	user, err := s.users.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", role))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve participant")
	}
	if user.Role != role {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("user %s is not a %s", id, role))
	}
	return user, nil
}

func validateCreateInput(input CreateAppointmentInput) error {
	if input.DoctorID == uuid.Nil || input.PatientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "doctor and patient ids required")
	}
	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, input.Time); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "time must be formatted as HH:MM")
	}
	return nil
}
