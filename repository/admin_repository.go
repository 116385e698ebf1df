package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"gorm.io/gorm"
)

// AdminRepository defines the interface for admin account data access
type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// GormAdminRepository implements AdminRepository using GORM
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository creates a new instance of GormAdminRepository
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

func (r *GormAdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *GormAdminRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Update("last_login_at", at).Error
}
