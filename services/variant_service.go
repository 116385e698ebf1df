package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrVariantNotFound = apperrors.ErrNotFound.WithMessage("Variant not found")

// VariantService manages the color/size options of products.
type VariantService interface {
	ListVariants(ctx context.Context, productID string, includeInactive bool) ([]models.ProductVariant, error)
	CreateVariant(ctx context.Context, productID string, req models.CreateVariantRequest) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, id string, req models.UpdateVariantRequest) (*models.ProductVariant, error)
	// FindOrCreateVariant returns the variant of product for color and size,
	// inserting it with zero stock in its own transaction when missing.
	// It is a write even when called from the checkout path.
	FindOrCreateVariant(ctx context.Context, product *models.Product, color, size string) (*models.ProductVariant, error)
}

type variantService struct {
	store  repository.Store
	cache  ProductCache
	logger *zap.Logger
}

func NewVariantService(store repository.Store, cache ProductCache, logger *zap.Logger) VariantService {
	return &variantService{store: store, cache: cache, logger: logger}
}

// BuildSKU derives the SKU of a product option: upper-cased name, color and
// size joined by hyphens, with runs of whitespace turned into single hyphens.
func BuildSKU(productName, color, size string) string {
	parts := []string{productName, color, size}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToUpper(p)), "-")
	}
	return strings.Join(parts, "-")
}

func (s *variantService) ListVariants(ctx context.Context, productID string, includeInactive bool) ([]models.ProductVariant, error) {
	pid, err := parseID(productID, "productId")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, pid, includeInactive); err != nil {
		return nil, translate(err, ErrProductMissing)
	}
	variants, err := s.store.Variants().ListByProduct(ctx, pid, includeInactive)
	if err != nil {
		return nil, translate(err, nil)
	}
	return variants, nil
}

func (s *variantService) CreateVariant(ctx context.Context, productID string, req models.CreateVariantRequest) (*models.ProductVariant, error) {
	pid, err := parseID(productID, "productId")
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(req.Color)
	size := strings.TrimSpace(req.Size)
	if color == "" || size == "" {
		return nil, apperrors.ErrValidation.WithMessage("color and size are required")
	}

	product, err := s.store.Products().FindByID(ctx, pid, true)
	if err != nil {
		return nil, translate(err, ErrProductMissing)
	}

	sku := BuildSKU(product.Name, color, size)
	if req.SKU != nil && strings.TrimSpace(*req.SKU) != "" {
		sku = strings.TrimSpace(*req.SKU)
	}

	variant := &models.ProductVariant{
		ProductID: product.ID,
		Color:     color,
		Size:      size,
		Quantity:  req.Quantity,
		SKU:       sku,
		IsActive:  true,
	}
	if err := s.store.Variants().Create(ctx, variant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrConflict.WithMessage("A variant with this color/size or SKU already exists")
		}
		return nil, translate(err, nil)
	}

	invalidate(ctx, s.cache, product.ID)
	s.logger.Info("variant created", zap.String("product_id", product.ID.String()), zap.String("sku", variant.SKU))
	return variant, nil
}

func (s *variantService) UpdateVariant(ctx context.Context, id string, req models.UpdateVariantRequest) (*models.ProductVariant, error) {
	vid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("No fields to update")
	}

	if err := s.store.Variants().Update(ctx, vid, updates); err != nil {
		return nil, translate(err, ErrVariantNotFound)
	}
	variant, err := s.store.Variants().FindByID(ctx, vid)
	if err != nil {
		return nil, translate(err, ErrVariantNotFound)
	}
	invalidate(ctx, s.cache, variant.ProductID)
	return variant, nil
}

func (s *variantService) FindOrCreateVariant(ctx context.Context, product *models.Product, color, size string) (*models.ProductVariant, error) {
	var variant *models.ProductVariant
	created := false

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Variants().FindByOption(ctx, product.ID, color, size)
		if err == nil {
			variant = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		candidate := &models.ProductVariant{
			ID:        uuid.New(),
			ProductID: product.ID,
			Color:     color,
			Size:      size,
			Quantity:  0,
			SKU:       BuildSKU(product.Name, color, size),
			IsActive:  true,
		}
		inserted, err := tx.Variants().CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if inserted {
			variant, created = candidate, true
			return nil
		}

		// Either a concurrent request created the same option or another
		// product with the same name owns the SKU.
		existing, err = tx.Variants().FindByOption(ctx, product.ID, color, size)
		if err == nil {
			variant = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		candidate.SKU = fmt.Sprintf("%s-%s", candidate.SKU, strings.ToUpper(product.ID.String()[:8]))
		inserted, err = tx.Variants().CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("variant %s could not be created", candidate.SKU)
		}
		variant, created = candidate, true
		return nil
	})
	if err != nil {
		return nil, translate(err, nil)
	}

	if created {
		invalidate(ctx, s.cache, product.ID)
		s.logger.Info("variant created on demand",
			zap.String("product_id", product.ID.String()),
			zap.String("sku", variant.SKU),
		)
	}
	return variant, nil
}
