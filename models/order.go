package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusNew              OrderStatus = "new"
	OrderStatusPaid             OrderStatus = "paid"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// OrderStatuses lists every status in fulfilment order.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusPaid,
	OrderStatusReadyForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// RevenueStatuses are the statuses whose totals count as revenue.
var RevenueStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusReadyForDelivery,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"orderNumber"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerEmail   string          `gorm:"type:varchar(255);not null;index" json:"customerEmail"`
	CustomerPhone   string          `gorm:"type:varchar(50);not null" json:"customerPhone"`
	DeliveryAddress string          `gorm:"type:text;not null" json:"deliveryAddress"`
	Status          OrderStatus     `gorm:"type:varchar(30);not null;default:'new';index" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	// StockDeducted is set when the paid transition removed the order's
	// quantities from inventory. It is never cleared.
	StockDeducted bool        `gorm:"not null;default:false" json:"stockDeducted"`
	PaidAt        *time.Time  `json:"paidAt"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	ProductVariantID *uuid.UUID      `gorm:"type:uuid;index" json:"productVariantId"`
	Quantity         int             `gorm:"not null;check:chk_order_items_quantity,quantity > 0" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	SelectedColor    *string         `gorm:"type:varchar(50)" json:"selectedColor"`
	SelectedSize     *string         `gorm:"type:varchar(50)" json:"selectedSize"`
	Product          *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product"`
	Variant          *ProductVariant `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:SET NULL" json:"variant"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal is UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
