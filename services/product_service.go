package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/logger"
	"github.com/jonbarlo/onlineshop-api/models"
	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
)

// ErrProductMissing is the catalog's not-found error. Checkout reports
// missing products with apperrors.ErrProductNotFound instead.
var ErrProductMissing = apperrors.ErrNotFound.WithMessage("Product not found")

var ErrCategoryMissing = apperrors.ErrNotFound.WithMessage("Category not found")

// ProductService manages the product catalog.
type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, id string, includeInactive bool) (*models.Product, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	store   repository.Store
	cache   ProductCache
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
}

func NewProductService(store repository.Store, cache ProductCache, metrics awspkg.MetricsRecorder, logger *zap.Logger) ProductService {
	return &productService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// ListProducts returns one page of products. Public listings (active
// products only) are served from the cache when one is configured.
func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, apperrors.ErrValidation.WithMessage("minPrice must be less than or equal to maxPrice")
	}
	if filter.Sort != "" && !repository.IsSupportedProductSort(filter.Sort) {
		return nil, 0, apperrors.ErrValidation.WithMessagef("Unsupported sort %q", filter.Sort)
	}

	cacheable := s.cache != nil && !filter.IncludeInactive
	if cacheable {
		if products, total, ok := s.cache.GetProductList(ctx, filter); ok {
			s.recordCache(ctx, true)
			return products, total, nil
		}
		s.recordCache(ctx, false)
	}

	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	if cacheable {
		s.cache.SetProductList(ctx, filter, products, total)
	}
	return products, total, nil
}

func (s *productService) GetProduct(ctx context.Context, id string, includeInactive bool) (*models.Product, error) {
	pid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && !includeInactive
	if cacheable {
		if product, ok := s.cache.GetProduct(ctx, pid.String()); ok {
			s.recordCache(ctx, true)
			return product, nil
		}
		s.recordCache(ctx, false)
	}

	product, err := s.store.Products().FindByID(ctx, pid, includeInactive)
	if err != nil {
		return nil, translate(err, ErrProductMissing)
	}
	if cacheable {
		s.cache.SetProduct(ctx, product)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperrors.ErrValidation.WithMessage("price must be greater than zero")
	}
	if req.Quantity < 0 {
		return nil, apperrors.ErrValidation.WithMessage("quantity must not be negative")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: trimmedOrNil(req.Description),
		Price:       req.Price.Round(2),
		Quantity:    req.Quantity,
		ImageURL:    trimmedOrNil(req.ImageURL),
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.SyncStatus()

	if req.CategoryID != nil && strings.TrimSpace(*req.CategoryID) != "" {
		cid, err := s.resolveCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = &cid
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, translate(err, nil)
	}

	invalidate(ctx, s.cache)
	logger.With(ctx, s.logger).Info("product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	created, err := s.store.Products().FindByID(ctx, product.ID, true)
	if err != nil {
		return nil, translate(err, ErrProductMissing)
	}
	return created, nil
}

// UpdateProduct applies a partial update. A quantity change recomputes the
// product status in the same write.
func (s *productService) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	pid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = trimmedOrNil(req.Description)
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apperrors.ErrValidation.WithMessage("price must be greater than zero")
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperrors.ErrValidation.WithMessage("quantity must not be negative")
		}
		updates["quantity"] = *req.Quantity
		updates["status"] = string(models.StatusForQuantity(*req.Quantity))
	}
	if req.ImageURL != nil {
		updates["image_url"] = trimmedOrNil(req.ImageURL)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.CategoryID != nil {
		if strings.TrimSpace(*req.CategoryID) == "" {
			updates["category_id"] = nil
		} else {
			cid, err := s.resolveCategory(ctx, *req.CategoryID)
			if err != nil {
				return nil, err
			}
			updates["category_id"] = cid
		}
	}
	if len(updates) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("No fields to update")
	}

	if err := s.store.Products().Update(ctx, pid, updates); err != nil {
		return nil, translate(err, ErrProductMissing)
	}

	invalidate(ctx, s.cache, pid)
	product, err := s.store.Products().FindByID(ctx, pid, true)
	if err != nil {
		return nil, translate(err, ErrProductMissing)
	}
	return product, nil
}

// DeleteProduct soft-deletes a product; order history keeps referencing it.
func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	pid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if err := s.store.Products().Update(ctx, pid, map[string]interface{}{"is_active": false}); err != nil {
		return translate(err, ErrProductMissing)
	}
	invalidate(ctx, s.cache, pid)
	logger.With(ctx, s.logger).Info("product deactivated", zap.String("product_id", pid.String()))
	return nil
}

func (s *productService) resolveCategory(ctx context.Context, raw string) (uuid.UUID, error) {
	cid, err := parseID(raw, "categoryId")
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.store.Categories().FindByID(ctx, cid, false); err != nil {
		return uuid.Nil, translate(err, apperrors.ErrValidation.WithMessage("categoryId does not reference an active category"))
	}
	return cid, nil
}

func (s *productService) recordCache(ctx context.Context, hit bool) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	metric := awspkg.MetricCacheMisses
	if hit {
		metric = awspkg.MetricCacheHits
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "products"})
}
