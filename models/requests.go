package models

import (
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName" binding:"required,min=2,max=255"`
	CustomerEmail   string             `json:"customerEmail" binding:"required,email,max=255"`
	CustomerPhone   string             `json:"customerPhone" binding:"required,min=7,max=50"`
	DeliveryAddress string             `json:"deliveryAddress" binding:"required,min=5,max=1000"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// OrderItemRequest is one checkout line. Color and size select a variant
// only when both are present.
type OrderItemRequest struct {
	ProductID     string  `json:"productId" binding:"required,uuid"`
	Quantity      int     `json:"quantity" binding:"required,gt=0,lte=1000"`
	SelectedColor *string `json:"selectedColor" binding:"omitempty,max=50"`
	SelectedSize  *string `json:"selectedSize" binding:"omitempty,max=50"`
}

// UpdateOrderStatusRequest is the admin status change payload.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=new paid ready_for_delivery delivered cancelled"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

// UpdateCategoryRequest is a partial category update.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=2,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=5000"`
	Price       decimal.Decimal `json:"price" binding:"required,gt=0"`
	Quantity    int             `json:"quantity" binding:"gte=0"`
	ImageURL    *string         `json:"imageUrl" binding:"omitempty,url"`
	CategoryID  *string         `json:"categoryId" binding:"omitempty,uuid"`
	IsActive    *bool           `json:"isActive"`
}

// UpdateProductRequest is a partial product update.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gt=0"`
	Quantity    *int             `json:"quantity" binding:"omitempty,gte=0"`
	ImageURL    *string          `json:"imageUrl" binding:"omitempty,url"`
	CategoryID  *string          `json:"categoryId" binding:"omitempty,uuid"`
	IsActive    *bool            `json:"isActive"`
}

// CreateVariantRequest is the payload for adding a variant to a product.
type CreateVariantRequest struct {
	Color    string  `json:"color" binding:"required,max=50"`
	Size     string  `json:"size" binding:"required,max=50"`
	Quantity int     `json:"quantity" binding:"gte=0"`
	SKU      *string `json:"sku" binding:"omitempty,max=150"`
}

// UpdateVariantRequest is a partial variant update.
type UpdateVariantRequest struct {
	Quantity *int  `json:"quantity" binding:"omitempty,gte=0"`
	IsActive *bool `json:"isActive"`
}

// CreateImageRequest adds an image to a product gallery.
type CreateImageRequest struct {
	URL       string  `json:"url" binding:"required,url"`
	AltText   *string `json:"altText" binding:"omitempty,max=255"`
	SortOrder *int    `json:"sortOrder" binding:"omitempty,gte=0"`
	IsPrimary bool    `json:"isPrimary"`
}

// UpdateImageRequest is a partial image update.
type UpdateImageRequest struct {
	AltText   *string `json:"altText" binding:"omitempty,max=255"`
	SortOrder *int    `json:"sortOrder" binding:"omitempty,gte=0"`
	IsPrimary *bool   `json:"isPrimary"`
}

// UploadURLRequest asks for a presigned gallery upload URL.
type UploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required,oneof=image/jpeg image/png image/webp image/gif"`
}
