package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Page            int
	Limit           int
	CategoryID      *uuid.UUID
	Status          *models.ProductStatus
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Sort            string
	IncludeInactive bool
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Product, error)
	FindAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new instance of GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var productSorts = map[string]string{
	"price_asc":       "price ASC",
	"price_desc":      "price DESC",
	"name_asc":        "name ASC",
	"name_desc":       "name DESC",
	"created_at_asc":  "created_at ASC",
	"created_at_desc": "created_at DESC",
}

// IsSupportedProductSort reports whether sort is a known listing order.
func IsSupportedProductSort(sort string) bool {
	_, ok := productSorts[sort]
	return ok
}

func withGallery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Variants", "is_active = ?", true, func(db *gorm.DB) *gorm.DB {
			return db.Order("color ASC, size ASC")
		}).
		Preload("Images", "is_active = ?", true, func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		})
}

// List retrieves one page of products matching filter
func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := productSorts[filter.Sort]
	if !ok {
		order = "created_at DESC"
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := withGallery(query).
		Order(order).
		Offset(offset).
		Limit(filter.Limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// FindByID retrieves a product with its category, active variants and gallery
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Product, error) {
	var product models.Product

	query := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := withGallery(query).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAvailableByIDs returns the active, available products among ids in a single query
func (r *GormProductRepository) FindAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ? AND status = ?", ids, true, string(models.ProductStatusAvailable)).
		Find(&products).Error
	return products, err
}

// LockByIDs reads products with SELECT ... FOR UPDATE. Rows are locked in id
// order so concurrent callers cannot deadlock on each other.
func (r *GormProductRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error
	return products, err
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// Update applies a partial update; it reports gorm.ErrRecordNotFound when no row matches
func (r *GormProductRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeductStock removes quantity units from the product and recomputes its
// status in one conditional UPDATE. It returns false, leaving the row
// untouched, when fewer than quantity units are in stock.
func (r *GormProductRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"status":     gorm.Expr("CASE WHEN quantity - ? > 0 THEN ? ELSE ? END", quantity, string(models.ProductStatusAvailable), string(models.ProductStatusSoldOut)),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
