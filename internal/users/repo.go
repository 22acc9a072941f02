package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvergara/caresched-backend/pkg/db/models"
)

// Repository exposes lookups needed by scheduling and auth middleware.
type Repository interface {
	Resolve(ctx context.Context, id uuid.UUID) (*models.User, error)
	ResolveByAuthSubject(ctx context.Context, subject string) (*models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Resolve(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) ResolveByAuthSubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "auth_subject = ?", subject).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
