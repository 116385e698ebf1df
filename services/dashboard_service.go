package services

import (
	"context"

	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/shopspring/decimal"
)

const (
	DefaultLowStockThreshold = 5
	lowStockLimit            = 20
	recentOrdersLimit        = 5
)

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalProducts    int64                        `json:"totalProducts"`
	ActiveProducts   int64                        `json:"activeProducts"`
	SoldOutProducts  int64                        `json:"soldOutProducts"`
	TotalCategories  int64                        `json:"totalCategories"`
	TotalOrders      int64                        `json:"totalOrders"`
	OrdersByStatus   map[models.OrderStatus]int64 `json:"ordersByStatus"`
	TotalRevenue     decimal.Decimal              `json:"totalRevenue"`
	LowStockVariants []repository.LowStockVariant `json:"lowStockVariants"`
	RecentOrders     []models.Order               `json:"recentOrders"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	store             repository.Store
	lowStockThreshold int
}

func NewDashboardService(store repository.Store, lowStockThreshold int) DashboardService {
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &dashboardService{store: store, lowStockThreshold: lowStockThreshold}
}

// Stats aggregates the dashboard. Revenue counts orders that have been paid,
// whatever their later fulfilment status.
func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	repo := s.store.Dashboard()

	products, err := repo.ProductCounts(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	categories, err := repo.CountCategories(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	byStatus, err := repo.OrderCountsByStatus(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	revenue, err := repo.Revenue(ctx, models.RevenueStatuses)
	if err != nil {
		return nil, translate(err, nil)
	}
	lowStock, err := repo.LowStockVariants(ctx, s.lowStockThreshold, lowStockLimit)
	if err != nil {
		return nil, translate(err, nil)
	}
	recent, err := repo.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return nil, translate(err, nil)
	}

	var totalOrders int64
	for _, n := range byStatus {
		totalOrders += n
	}
	if lowStock == nil {
		lowStock = []repository.LowStockVariant{}
	}
	if recent == nil {
		recent = []models.Order{}
	}

	return &DashboardStats{
		TotalProducts:    products.Total,
		ActiveProducts:   products.Active,
		SoldOutProducts:  products.SoldOut,
		TotalCategories:  categories,
		TotalOrders:      totalOrders,
		OrdersByStatus:   byStatus,
		TotalRevenue:     revenue,
		LowStockVariants: lowStock,
		RecentOrders:     recent,
	}, nil
}
