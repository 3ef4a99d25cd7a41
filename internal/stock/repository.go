package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists stock_levels rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ProductTotal is the summed quantity of every size of one product.
type ProductTotal struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Total     int64     `gorm:"column:total"`
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockLevel, error) {
	var row models.StockLevel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByProductSize matches the size label ignoring case, the same way order
// items are matched against a product's declared sizes.
func (r *Repository) FindByProductSize(ctx context.Context, productID uuid.UUID, size string) (*models.StockLevel, error) {
	var row models.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND LOWER(size) = LOWER(?)", productID, size).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockLevel, error) {
	var rows []models.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("size ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListAll(ctx context.Context) ([]models.StockLevel, error) {
	var rows []models.StockLevel
	err := r.db.WithContext(ctx).
		Order("product_id ASC").
		Order("size ASC").
		Find(&rows).Error
	return rows, err
}

// ListLow returns rows at or under their threshold, emptiest first.
func (r *Repository) ListLow(ctx context.Context) ([]models.StockLevel, error) {
	var rows []models.StockLevel
	err := r.db.WithContext(ctx).
		Where("quantity <= low_threshold").
		Order("quantity ASC").
		Order("product_id ASC").
		Order("size ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Totals(ctx context.Context) ([]ProductTotal, error) {
	var rows []ProductTotal
	err := r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Select("product_id, SUM(quantity) AS total").
		Group("product_id").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) InsertMany(ctx context.Context, rows []models.StockLevel) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// SetQuantity overwrites the quantity of one row. Last writer wins.
func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "updated_at": at})
	return res.RowsAffected > 0, res.Error
}

// Decrement subtracts qty only when enough stock is on hand.
func (r *Repository) Decrement(ctx context.Context, productID uuid.UUID, size string, qty int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockLevel{}).
		Where("product_id = ? AND LOWER(size) = LOWER(?) AND quantity >= ?", productID, size, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.StockLevel{}, "product_id = ?", productID)
	return res.RowsAffected, res.Error
}
