package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus is derived from the product-level quantity.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSoldOut   ProductStatus = "sold_out"
)

// StatusForQuantity returns the status a product with quantity units must carry.
func StatusForQuantity(quantity int) ProductStatus {
	if quantity > 0 {
		return ProductStatusAvailable
	}
	return ProductStatusSoldOut
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0" json:"quantity"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'sold_out';index" json:"status"`
	// Deprecated: single image kept for products created before galleries.
	ImageURL   *string          `gorm:"column:image_url;type:text" json:"imageUrl"`
	IsActive   bool             `gorm:"not null;index" json:"isActive"`
	CategoryID *uuid.UUID       `gorm:"type:uuid;index" json:"categoryId"`
	Category   *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	Images     []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SyncStatus recomputes Status from Quantity.
func (p *Product) SyncStatus() {
	p.Status = StatusForQuantity(p.Quantity)
}

// PrimaryImageURL resolves the image shown for the product: the flagged
// primary image, else the first active image by sort order, else the legacy
// imageUrl. Only loaded Images are considered.
func (p *Product) PrimaryImageURL() *string {
	active := make([]ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		if img.IsActive {
			active = append(active, img)
		}
	}
	for _, img := range active {
		if img.IsPrimary {
			url := img.URL
			return &url
		}
	}
	if len(active) > 0 {
		SortImages(active)
		url := active[0].URL
		return &url
	}
	if p.ImageURL != nil && *p.ImageURL != "" {
		url := *p.ImageURL
		return &url
	}
	return nil
}

// MarshalJSON adds the resolved primaryImage to the product body. Unloaded
// variants and images render as empty lists.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	if p.Variants == nil {
		p.Variants = []ProductVariant{}
	}
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	return json.Marshal(struct {
		product
		PrimaryImage *string `json:"primaryImage"`
	}{product(p), p.PrimaryImageURL()})
}

// ProductVariant is one color/size option of a product with its own stock.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_option" json:"productId"`
	Color     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_option" json:"color"`
	Size      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_variant_option" json:"size"`
	Quantity  int       `gorm:"not null;default:0;check:chk_product_variants_quantity,quantity >= 0" json:"quantity"`
	SKU       string    `gorm:"column:sku;type:varchar(150);uniqueIndex;not null" json:"sku"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ProductImage is one entry of a product gallery.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"productId"`
	URL       string    `gorm:"column:url;type:text;not null" json:"url"`
	AltText   *string   `gorm:"type:varchar(255)" json:"altText"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	IsPrimary bool      `gorm:"not null;default:false" json:"isPrimary"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SortImages orders images by sort order, then creation time.
func SortImages(images []ProductImage) {
	sort.SliceStable(images, func(a, b int) bool {
		if images[a].SortOrder != images[b].SortOrder {
			return images[a].SortOrder < images[b].SortOrder
		}
		return images[a].CreatedAt.Before(images[b].CreatedAt)
	})
}
