package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new instance of GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Category, error) {
	var category models.Category
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *GormCategoryRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
