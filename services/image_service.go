package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
)

var (
	ErrImageNotFound        = apperrors.ErrNotFound.WithMessage("Image not found")
	ErrUploadsNotConfigured = apperrors.New(503, "ServiceUnavailable", "Image uploads are not configured", nil)
)

const DefaultUploadExpiry = 15 * time.Minute

// ImageUploader presigns direct uploads to object storage.
type ImageUploader interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, error)
}

// UploadTarget tells the client where to PUT an image and which URL to
// register afterwards.
type UploadTarget struct {
	Upload    *awspkg.PresignedUpload `json:"upload"`
	Key       string                  `json:"key"`
	PublicURL string                  `json:"publicUrl"`
}

// UploadConfig locates uploaded gallery objects.
type UploadConfig struct {
	KeyPrefix     string
	PublicBaseURL string
	Expiry        time.Duration
}

// ImageService manages product galleries. Among the active images of a
// product at most one is primary, and when any active image exists exactly
// one is.
type ImageService interface {
	ListImages(ctx context.Context, productID string) ([]models.ProductImage, error)
	AddImage(ctx context.Context, productID string, req models.CreateImageRequest) (*models.ProductImage, error)
	UpdateImage(ctx context.Context, id string, req models.UpdateImageRequest) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, id string) error
	CreateUploadURL(ctx context.Context, productID string, req models.UploadURLRequest) (*UploadTarget, error)
}

type imageService struct {
	store    repository.Store
	cache    ProductCache
	uploader ImageUploader
	upload   UploadConfig
	logger   *zap.Logger
}

// NewImageService builds the gallery service. uploader may be nil, in which
// case presigned uploads are reported as unavailable.
func NewImageService(store repository.Store, cache ProductCache, uploader ImageUploader, upload UploadConfig, logger *zap.Logger) ImageService {
	if upload.Expiry <= 0 {
		upload.Expiry = DefaultUploadExpiry
	}
	return &imageService{store: store, cache: cache, uploader: uploader, upload: upload, logger: logger}
}

func (s *imageService) ListImages(ctx context.Context, productID string) ([]models.ProductImage, error) {
	pid, err := parseID(productID, "productId")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, pid, true); err != nil {
		return nil, translate(err, ErrProductMissing)
	}
	images, err := s.store.Images().ListByProduct(ctx, pid)
	if err != nil {
		return nil, translate(err, nil)
	}
	return images, nil
}

func (s *imageService) AddImage(ctx context.Context, productID string, req models.CreateImageRequest) (*models.ProductImage, error) {
	pid, err := parseID(productID, "productId")
	if err != nil {
		return nil, err
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		ProductID: pid,
		URL:       strings.TrimSpace(req.URL),
		AltText:   trimmedOrNil(req.AltText),
		IsPrimary: req.IsPrimary,
		IsActive:  true,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Images().LockProductGallery(ctx, pid); err != nil {
			return err
		}

		if req.SortOrder != nil {
			image.SortOrder = *req.SortOrder
		} else {
			next, err := tx.Images().NextSortOrder(ctx, pid)
			if err != nil {
				return err
			}
			image.SortOrder = next
		}

		active, err := tx.Images().CountActive(ctx, pid)
		if err != nil {
			return err
		}
		if active == 0 {
			image.IsPrimary = true
		}

		if err := tx.Images().Create(ctx, image); err != nil {
			return err
		}
		if image.IsPrimary {
			return tx.Images().ClearPrimary(ctx, pid, image.ID)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, ErrProductMissing)
	}

	invalidate(ctx, s.cache, pid)
	s.logger.Info("product image added",
		zap.String("product_id", pid.String()),
		zap.String("image_id", image.ID.String()),
		zap.Bool("primary", image.IsPrimary),
	)
	return image, nil
}

// UpdateImage changes alt text, sort order or the primary flag. Unsetting
// the flag on the current primary hands it to the next image in gallery
// order, if there is one.
func (s *imageService) UpdateImage(ctx context.Context, id string, req models.UpdateImageRequest) (*models.ProductImage, error) {
	iid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.AltText != nil {
		updates["alt_text"] = trimmedOrNil(req.AltText)
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsPrimary != nil {
		updates["is_primary"] = *req.IsPrimary
	}
	if len(updates) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("No fields to update")
	}

	var productID uuid.UUID
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := lockImage(ctx, tx, iid)
		if err != nil {
			return err
		}
		productID = current.ProductID
		if err := tx.Images().Update(ctx, iid, updates); err != nil {
			return err
		}

		if req.IsPrimary == nil {
			return nil
		}
		if *req.IsPrimary {
			return tx.Images().ClearPrimary(ctx, productID, iid)
		}
		if current.IsPrimary {
			return promoteNext(ctx, tx, productID, iid)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, ErrImageNotFound)
	}

	invalidate(ctx, s.cache, productID)
	image, err := s.store.Images().FindActiveByID(ctx, iid)
	if err != nil {
		return nil, translate(err, ErrImageNotFound)
	}
	return image, nil
}

// DeleteImage soft-deletes an image. Deleting the primary promotes the next
// active image by (sortOrder, createdAt).
func (s *imageService) DeleteImage(ctx context.Context, id string) error {
	iid, err := parseID(id, "id")
	if err != nil {
		return err
	}

	var productID uuid.UUID
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := lockImage(ctx, tx, iid)
		if err != nil {
			return err
		}
		productID = current.ProductID
		if err := tx.Images().Update(ctx, iid, map[string]interface{}{"is_active": false, "is_primary": false}); err != nil {
			return err
		}
		if !current.IsPrimary {
			return nil
		}
		return promoteNext(ctx, tx, productID, iid)
	})
	if err != nil {
		return translate(err, ErrImageNotFound)
	}

	invalidate(ctx, s.cache, productID)
	s.logger.Info("product image deleted", zap.String("product_id", productID.String()), zap.String("image_id", iid.String()))
	return nil
}

// lockImage locks the gallery owning image id and re-reads the image under
// that lock, so a concurrent delete is seen as not found.
func lockImage(ctx context.Context, tx repository.Store, id uuid.UUID) (*models.ProductImage, error) {
	image, err := tx.Images().FindActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Images().LockProductGallery(ctx, image.ProductID); err != nil {
		return nil, err
	}
	return tx.Images().FindActiveByID(ctx, id)
}

// promoteNext makes the first active image other than skip the primary one.
// When skip is the only active image it keeps the flag.
func promoteNext(ctx context.Context, tx repository.Store, productID, skip uuid.UUID) error {
	images, err := tx.Images().ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	for _, img := range images {
		if img.ID == skip {
			continue
		}
		if err := tx.Images().Update(ctx, img.ID, map[string]interface{}{"is_primary": true}); err != nil {
			return err
		}
		return tx.Images().ClearPrimary(ctx, productID, img.ID)
	}
	for _, img := range images {
		if img.ID == skip {
			return tx.Images().Update(ctx, skip, map[string]interface{}{"is_primary": true})
		}
	}
	return nil
}

func (s *imageService) CreateUploadURL(ctx context.Context, productID string, req models.UploadURLRequest) (*UploadTarget, error) {
	if s.uploader == nil {
		return nil, ErrUploadsNotConfigured
	}
	pid, err := parseID(productID, "productId")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, pid, true); err != nil {
		return nil, translate(err, ErrProductMissing)
	}

	key := path.Join(s.upload.KeyPrefix, pid.String(), fmt.Sprintf("%s%s", uuid.NewString(), imageExtension(req.FileName, req.ContentType)))
	upload, err := s.uploader.PresignPut(ctx, key, req.ContentType, s.upload.Expiry)
	if err != nil {
		s.logger.Error("failed to presign image upload", zap.Error(err), zap.String("product_id", pid.String()))
		return nil, apperrors.ErrInternal.Wrap(err)
	}

	return &UploadTarget{
		Upload:    upload,
		Key:       key,
		PublicURL: strings.TrimRight(s.upload.PublicBaseURL, "/") + "/" + key,
	}, nil
}

func imageExtension(fileName, contentType string) string {
	if ext := strings.ToLower(path.Ext(fileName)); ext != "" && len(ext) <= 5 {
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
