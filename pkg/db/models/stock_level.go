package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel holds the on-hand quantity for one size of one product.
type StockLevel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Size         string    `gorm:"column:size;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	LowThreshold int       `gorm:"column:low_threshold;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}
