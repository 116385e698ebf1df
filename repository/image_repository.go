package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository defines the interface for product gallery data access
type ImageRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ProductImage, error)
	LockProductGallery(ctx context.Context, productID uuid.UUID) error
	NextSortOrder(ctx context.Context, productID uuid.UUID) (int, error)
	CountActive(ctx context.Context, productID uuid.UUID) (int64, error)
	Create(ctx context.Context, image *models.ProductImage) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	ClearPrimary(ctx context.Context, productID, exceptID uuid.UUID) error
}

// GormImageRepository implements ImageRepository using GORM
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository creates a new instance of GormImageRepository
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	return &GormImageRepository{db: db}
}

// ListByProduct returns the active gallery of a product, ordered for display
func (r *GormImageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("sort_order ASC, created_at ASC").
		Find(&images).Error
	return images, err
}

func (r *GormImageRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	var image models.ProductImage
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// LockProductGallery locks the owning product row so gallery changes for the
// same product are serialized.
func (r *GormImageRepository) LockProductGallery(ctx context.Context, productID uuid.UUID) error {
	var product models.Product
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", productID).
		First(&product).Error
}

func (r *GormImageRepository) NextSortOrder(ctx context.Context, productID uuid.UUID) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Select("COALESCE(MAX(sort_order) + 1, 0)").
		Where("product_id = ? AND is_active = ?", productID, true).
		Scan(&next).Error
	return next, err
}

func (r *GormImageRepository) CountActive(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Count(&count).Error
	return count, err
}

func (r *GormImageRepository) Create(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// Update changes an active image. Soft-deleted images are reported as not found.
func (r *GormImageRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.ProductImage{}).Where("id = ? AND is_active = ?", id, true).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearPrimary unflags every active primary image of productID except exceptID
func (r *GormImageRepository) ClearPrimary(ctx context.Context, productID, exceptID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ? AND id <> ? AND is_primary = ?", productID, exceptID, true).
		Update("is_primary", false).Error
}
