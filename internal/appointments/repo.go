package appointments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/pkg/db"
	"github.com/mvergara/caresched-backend/pkg/db/models"
	"github.com/mvergara/caresched-backend/pkg/enums"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
	"github.com/mvergara/caresched-backend/pkg/pagination"
)

// doctorSlotConstraint is the partial unique index blocking a doctor from
// two scheduled appointments at the same date and time.
const doctorSlotConstraint = "ux_appointments_doctor_slot"

// Repository exposes persistence helpers for appointments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListForUser(ctx context.Context, params listAppointmentsParams) ([]models.Appointment, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.AppointmentStatus) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an appointments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listAppointmentsParams struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, appointment *models.Appointment) error {
	if err := r.db.WithContext(ctx).Create(appointment).Error; err != nil {
		if db.IsUniqueViolation(err, doctorSlotConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "doctor already has an appointment in this slot")
		}
		return err
	}
	return nil
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *repositoryImpl) ListForUser(ctx context.Context, params listAppointmentsParams) ([]models.Appointment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Appointment{})
	switch params.Role {
	case enums.UserRoleDoctor:
		query = query.Where("doctor_id = ?", params.UserID)
	default:
		query = query.Where("patient_id = ?", params.UserID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var appointments []models.Appointment
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&appointments).Error; err != nil {
		return nil, nil, err
	}

	if len(appointments) > normalized {
		next := appointments[normalized]
		appointments = appointments[:normalized]
		return appointments, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return appointments, nil, nil
}

// UpdateStatus transitions only from the expected status so concurrent
// decisions cannot clobber each other.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.AppointmentStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	return result.RowsAffected, result.Error
}
