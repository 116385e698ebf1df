package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errCategoryNameTaken = apperrors.ErrConflict.WithMessage("A category with this name already exists")

type CategoryService interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id string, includeInactive bool) (*models.Category, error)
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, req models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type categoryService struct {
	store  repository.Store
	cache  ProductCache
	logger *zap.Logger
}

func NewCategoryService(store repository.Store, cache ProductCache, logger *zap.Logger) CategoryService {
	return &categoryService{store: store, cache: cache, logger: logger}
}

func (s *categoryService) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx, includeInactive)
	if err != nil {
		return nil, translate(err, nil)
	}
	return categories, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id string, includeInactive bool) (*models.Category, error) {
	cid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	category, err := s.store.Categories().FindByID(ctx, cid, includeInactive)
	if err != nil {
		return nil, translate(err, ErrCategoryMissing)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: trimmedOrNil(req.Description),
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if category.Name == "" {
		return nil, apperrors.ErrValidation.WithMessage("name is required")
	}

	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errCategoryNameTaken
		}
		return nil, translate(err, nil)
	}
	s.logger.Info("category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id string, req models.UpdateCategoryRequest) (*models.Category, error) {
	cid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.ErrValidation.WithMessage("name must not be blank")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = trimmedOrNil(req.Description)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("No fields to update")
	}

	if err := s.store.Categories().Update(ctx, cid, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errCategoryNameTaken
		}
		return nil, translate(err, ErrCategoryMissing)
	}
	// Product payloads embed their category.
	invalidate(ctx, s.cache)
	return s.GetCategory(ctx, id, true)
}

// DeleteCategory deactivates a category. Its products keep the reference.
func (s *categoryService) DeleteCategory(ctx context.Context, id string) error {
	cid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if err := s.store.Categories().Update(ctx, cid, map[string]interface{}{"is_active": false}); err != nil {
		return translate(err, ErrCategoryMissing)
	}
	invalidate(ctx, s.cache)
	s.logger.Info("category deactivated", zap.String("category_id", cid.String()))
	return nil
}
