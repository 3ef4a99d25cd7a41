package stock

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// StockLevel is the decoded on-hand quantity for one size of one product.
type StockLevel struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	Size         string    `json:"size"`
	Quantity     int       `json:"quantity"`
	LowThreshold int       `json:"low_threshold"`
	Low          bool      `json:"low_stock"`
	OutOfStock   bool      `json:"out_of_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Availability answers whether a size can be added to a cart.
type Availability struct {
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	InStock   bool      `json:"in_stock"`
	LowStock  bool      `json:"low_stock"`
}

// Adjustment is the result of a quantity overwrite.
type Adjustment struct {
	Level            StockLevel `json:"stock_level"`
	PreviousQuantity int        `json:"previous_quantity"`
}

func decodeStockLevel(row models.StockLevel) (StockLevel, error) {
	if row.ID == uuid.Nil {
		return StockLevel{}, integrity(row.ID, "id", "missing")
	}
	if row.ProductID == uuid.Nil {
		return StockLevel{}, integrity(row.ID, "product_id", "missing")
	}
	size := strings.TrimSpace(row.Size)
	if size == "" {
		return StockLevel{}, integrity(row.ID, "size", "missing")
	}
	if row.Quantity < 0 {
		return StockLevel{}, integrity(row.ID, "quantity", "negative")
	}
	if row.LowThreshold < 0 {
		return StockLevel{}, integrity(row.ID, "low_threshold", "negative")
	}
	return StockLevel{
		ID:           row.ID,
		ProductID:    row.ProductID,
		Size:         size,
		Quantity:     row.Quantity,
		LowThreshold: row.LowThreshold,
		Low:          row.Quantity <= row.LowThreshold,
		OutOfStock:   row.Quantity <= 0,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func decodeStockLevels(rows []models.StockLevel) ([]StockLevel, error) {
	out := make([]StockLevel, 0, len(rows))
	for _, row := range rows {
		level, err := decodeStockLevel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	return out, nil
}

func integrity(id uuid.UUID, field, problem string) error {
	return pkgerrors.Newf(pkgerrors.CodeIntegrity, "stock level %s: %s %s", id, field, problem).
		WithDetails(map[string]any{"stock_level_id": id.String(), "field": field})
}
