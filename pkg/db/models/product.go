package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog row. Slug is "" until it has been persisted.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name            string              `gorm:"column:name;not null"`
	Slug            string              `gorm:"column:slug;not null"`
	LegacyID        *string             `gorm:"column:legacy_id"`
	Description     string              `gorm:"column:description;not null"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountedPrice decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(12,2)"`
	Images          []string            `gorm:"column:images;type:jsonb;serializer:json"`
	Colors          []string            `gorm:"column:colors;type:jsonb;serializer:json"`
	Sizes           []string            `gorm:"column:sizes;type:jsonb;serializer:json"`
	SKU             *string             `gorm:"column:sku"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	IsFeatured      bool                `gorm:"column:is_featured;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime:false"`
}
