package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a storefront order. Status moves only through the orders service.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CustomerEmail   string                `gorm:"column:customer_email;not null"`
	CustomerName    string                `gorm:"column:customer_name;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	PaymentID       *string               `gorm:"column:payment_id"`
	TrackingNumber  *string               `gorm:"column:tracking_number"`
	TrackingCarrier *string               `gorm:"column:tracking_carrier"`
	Notes           *string               `gorm:"column:notes"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime:false"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	DesignID  *string   `gorm:"column:design_id"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Size      string    `gorm:"column:size;not null"`
	Color     string    `gorm:"column:color;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false"`
}
