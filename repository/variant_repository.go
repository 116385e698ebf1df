package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariantRepository defines the interface for product variant data access
type VariantRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.ProductVariant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindByOption(ctx context.Context, productID uuid.UUID, color, size string) (*models.ProductVariant, error)
	CreateIfAbsent(ctx context.Context, variant *models.ProductVariant) (bool, error)
	Create(ctx context.Context, variant *models.ProductVariant) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}

// GormVariantRepository implements VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new instance of GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

func (r *GormVariantRepository) ListByProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("color ASC, size ASC").Find(&variants).Error
	return variants, err
}

func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindByOption looks up the variant of productID with the given color and
// size, active or not.
func (r *GormVariantRepository) FindByOption(ctx context.Context, productID uuid.UUID, color, size string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND color = ? AND size = ?", productID, color, size).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// CreateIfAbsent inserts variant unless a row with the same option or SKU
// already exists. It reports whether a row was inserted.
func (r *GormVariantRepository) CreateIfAbsent(ctx context.Context, variant *models.ProductVariant) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(variant)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormVariantRepository) Create(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *GormVariantRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockByIDs reads variants with SELECT ... FOR UPDATE in id order.
func (r *GormVariantRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&variants).Error
	return variants, err
}

// DeductStock removes quantity units from the variant with a conditional
// UPDATE. It returns false when fewer than quantity units are in stock.
func (r *GormVariantRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
