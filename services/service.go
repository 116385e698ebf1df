package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"gorm.io/gorm"
)

// ProductCache is the product read cache used by the catalog and order
// services. A nil ProductCache disables caching.
type ProductCache interface {
	GetProduct(ctx context.Context, id string) (*models.Product, bool)
	SetProduct(ctx context.Context, product *models.Product)
	GetProductList(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, bool)
	SetProductList(ctx context.Context, filter repository.ProductFilter, products []models.Product, total int64)
	InvalidateProducts(ctx context.Context, ids ...string)
}

// translate maps store errors onto application errors. notFound is returned
// for gorm.ErrRecordNotFound.
func translate(err error, notFound *apperrors.Error) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrConflict.Wrap(err)
	default:
		return apperrors.ErrInternal.Wrap(err)
	}
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.ErrValidation.WithMessagef("%s must be a valid UUID", field)
	}
	return id, nil
}

// normalizePage clamps page/limit into the accepted window.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// trimmedOrNil returns nil for nil or blank values.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func invalidate(ctx context.Context, cache ProductCache, ids ...uuid.UUID) {
	if cache == nil {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	cache.InvalidateProducts(ctx, keys...)
}
