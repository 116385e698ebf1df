package repository

import (
	"context"

	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductCounts summarizes the catalog.
type ProductCounts struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	SoldOut int64 `json:"soldOut"`
}

// LowStockVariant is an active variant at or below the low-stock threshold.
type LowStockVariant struct {
	VariantID   string `json:"variantId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SKU         string `json:"sku"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
}

// DashboardRepository runs the read-only aggregates behind the admin dashboard
type DashboardRepository interface {
	ProductCounts(ctx context.Context) (ProductCounts, error)
	CountCategories(ctx context.Context) (int64, error)
	OrderCountsByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	Revenue(ctx context.Context, statuses []models.OrderStatus) (decimal.Decimal, error)
	LowStockVariants(ctx context.Context, threshold, limit int) ([]LowStockVariant, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
}

// GormDashboardRepository implements DashboardRepository using GORM
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new instance of GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func (r *GormDashboardRepository) ProductCounts(ctx context.Context) (ProductCounts, error) {
	var counts ProductCounts
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(*) FILTER (WHERE is_active) AS active, "+
				"COUNT(*) FILTER (WHERE is_active AND status = ?) AS sold_out",
			string(models.ProductStatusSoldOut),
		).
		Scan(&counts).Error
	return counts, err
}

func (r *GormDashboardRepository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *GormDashboardRepository) OrderCountsByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[models.OrderStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *GormDashboardRepository) Revenue(ctx context.Context, statuses []models.OrderStatus) (decimal.Decimal, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status IN ?", values).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *GormDashboardRepository) LowStockVariants(ctx context.Context, threshold, limit int) ([]LowStockVariant, error) {
	var rows []LowStockVariant
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id AS variant_id, v.product_id, p.name AS product_name, v.sku, v.color, v.size, v.quantity").
		Joins("JOIN products AS p ON p.id = v.product_id").
		Where("v.is_active = ? AND p.is_active = ? AND v.quantity <= ?", true, true, threshold).
		Order("v.quantity ASC, p.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *GormDashboardRepository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
