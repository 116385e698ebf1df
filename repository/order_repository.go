package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Page   int
	Limit  int
	Status *models.OrderStatus
	Search string
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Variant")
}

// List retrieves orders with pagination, newest first
func (r *GormOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR customer_email ILIKE ? OR customer_name ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(filter.Limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// FindByID retrieves an order with its items and their product/variant
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := withItems(r.db.WithContext(ctx)).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID reads the order row with SELECT ... FOR UPDATE and loads its items.
// Concurrent status changes of the same order queue behind the lock.
func (r *GormOrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC, id ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order row and then its items. Callers wrap it in a
// transaction so a failed item insert leaves nothing behind.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&order.Items).Error
}

func (r *GormOrderRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
