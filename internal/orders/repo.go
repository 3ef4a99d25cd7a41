package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	var rows []models.Order
	q := r.newestFirst(ctx, status)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) ListAfter(ctx context.Context, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var rows []models.Order
	q := r.newestFirst(ctx, status)
	if cursor != nil {
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	err := q.Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repository) newestFirst(ctx context.Context, status *enums.OrderStatus) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	return q.Order("created_at DESC").Order("id DESC")
}

func (r *repository) ItemsForOrders(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SumTotalAmount(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Total decimal.NullDecimal `gorm:"column:total"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(total_amount) AS total").
		Scan(&out).Error
	if err != nil || !out.Total.Valid {
		return decimal.Zero, err
	}
	return out.Total.Decimal, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"notes": notes, "updated_at": at})
	return res.RowsAffected > 0, res.Error
}
