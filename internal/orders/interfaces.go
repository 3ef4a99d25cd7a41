package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/audit"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// List returns orders newest first. A zero limit means no limit.
	List(ctx context.Context, status *enums.OrderStatus, limit int) ([]models.Order, error)
	ListAfter(ctx context.Context, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ItemsForOrders(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderItem, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	SumTotalAmount(ctx context.Context) (decimal.Decimal, error)
	// UpdateStatus applies updates only while the order still holds expected.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string, at time.Time) (bool, error)
}

// StatusCount is one row of the per-status reduction.
type StatusCount struct {
	Status enums.OrderStatus `gorm:"column:status"`
	Total  int64             `gorm:"column:total"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductLookup resolves the products behind order items.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error)
}

// StockDecrementer takes ordered units off the shelf inside the creation transaction.
type StockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error
}

// TransitionRecorder observes committed status changes.
type TransitionRecorder interface {
	OrderTransitioned(from, to enums.OrderStatus)
}

var _ audit.Appender = (*audit.Trail)(nil)
