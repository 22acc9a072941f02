package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/pkg/db/models"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/outbox/payloads"
	"github.com/mvergara/caresched-backend/pkg/pagination"
)

const (
	appointmentSetTitle   = "Appointment Set"
	appointmentSetMessage = "An appointment has been scheduled on %s at %s. Check your Appointments page for more details."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Signaler notifies live subscribers that a recipient's notification set changed.
type Signaler interface {
	SignalChanged(ctx context.Context, recipientID uuid.UUID) error
}

// Service defines notification fan-out, list and read-state operations.
type Service interface {
	NotifyAppointmentCreated(ctx context.Context, event payloads.AppointmentCreatedEvent) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	SetRead(ctx context.Context, recipientID, notificationID uuid.UUID, read bool) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	signals Signaler
	logg    *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, tx txRunner, signals Signaler, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, signals: signals, logg: logg}, nil
}

// NotifyAppointmentCreated fans the event out to both participants. Both rows
// are written in one transaction with the same timestamp, so readers never see
// one half of the pair.
func (s *service) NotifyAppointmentCreated(ctx context.Context, event payloads.AppointmentCreatedEvent) error {
	if event.DoctorID == uuid.Nil || event.PatientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "doctor and patient ids required")
	}
	if event.Date == "" || event.Time == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "appointment date and time required")
	}

	now := time.Now().UTC()
	message := fmt.Sprintf(appointmentSetMessage, event.Date, event.Time)
	rows := []*models.Notification{
		{
			RecipientID: event.DoctorID,
			Title:       appointmentSetTitle,
			Message:     message,
			Read:        false,
			CreatedAt:   now,
		},
		{
			RecipientID: event.PatientID,
			Title:       appointmentSetTitle,
			Message:     message,
			Read:        false,
			CreatedAt:   now,
		},
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBatch(ctx, rows)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notifications")
	}

	s.signalChanged(ctx, event.DoctorID, event.PatientID)
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

// SetRead writes the requested read state in either direction. Repeating a
// request the row already satisfies succeeds without a write.
func (s *service) SetRead(ctx context.Context, recipientID, notificationID uuid.UUID, read bool) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.SetRead(ctx, recipientID, notificationID, read)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set notification read state")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if result.Updated {
		s.signalChanged(ctx, recipientID)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	if count > 0 {
		s.signalChanged(ctx, recipientID)
	}
	return count, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// signalChanged is best effort. A missed signal means a stale badge until the
// next change, never missed data.
func (s *service) signalChanged(ctx context.Context, recipients ...uuid.UUID) {
	if s.signals == nil {
		return
	}
	for _, recipient := range recipients {
		if err := s.signals.SignalChanged(ctx, recipient); err != nil && s.logg != nil {
			logCtx := s.logg.WithField(ctx, "recipient_id", recipient.String())
			s.logg.Warn(logCtx, "failed to signal notification change")
		}
	}
}
