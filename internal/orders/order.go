package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is a decoded storefront order.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerName    string                `json:"customer_name"`
	Status          enums.OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	PaymentID       *string               `json:"payment_id,omitempty"`
	TrackingNumber  *string               `json:"tracking_number,omitempty"`
	TrackingCarrier *string               `json:"tracking_carrier,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	DesignID  *string   `json:"design_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// LineItem is an order item joined with its product.
type LineItem struct {
	OrderItem
	Product catalog.Product `json:"product"`
}

type OrderWithItems struct {
	Order
	Items []LineItem `json:"items"`
}

func decodeOrder(row models.Order) (Order, error) {
	if row.ID == uuid.Nil {
		return Order{}, orderIntegrity(row.ID, "id", "missing")
	}
	if !row.Status.IsValid() {
		return Order{}, orderIntegrity(row.ID, "status", "unknown value "+string(row.Status))
	}
	if row.TotalAmount.IsNegative() {
		return Order{}, orderIntegrity(row.ID, "total_amount", "negative")
	}
	email := strings.TrimSpace(row.CustomerEmail)
	if email == "" {
		return Order{}, orderIntegrity(row.ID, "customer_email", "missing")
	}
	return Order{
		ID:              row.ID,
		CustomerEmail:   email,
		CustomerName:    strings.TrimSpace(row.CustomerName),
		Status:          row.Status,
		TotalAmount:     row.TotalAmount,
		ShippingAddress: row.ShippingAddress,
		PaymentID:       row.PaymentID,
		TrackingNumber:  row.TrackingNumber,
		TrackingCarrier: row.TrackingCarrier,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func decodeOrders(rows []models.Order) ([]Order, error) {
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		order, err := decodeOrder(row)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func decodeOrderItem(row models.OrderItem) (OrderItem, error) {
	if row.ProductID == uuid.Nil {
		return OrderItem{}, itemIntegrity(row, "product_id", "missing")
	}
	if row.Quantity <= 0 {
		return OrderItem{}, itemIntegrity(row, "quantity", "not positive")
	}
	return OrderItem{
		ID:        row.ID,
		OrderID:   row.OrderID,
		ProductID: row.ProductID,
		DesignID:  row.DesignID,
		Quantity:  row.Quantity,
		Size:      strings.TrimSpace(row.Size),
		Color:     strings.TrimSpace(row.Color),
		CreatedAt: row.CreatedAt,
	}, nil
}

func orderIntegrity(id uuid.UUID, field, problem string) error {
	return pkgerrors.Newf(pkgerrors.CodeIntegrity, "order %s: %s %s", id, field, problem).
		WithDetails(map[string]any{"order_id": id.String(), "field": field})
}

func itemIntegrity(row models.OrderItem, field, problem string) error {
	return pkgerrors.Newf(pkgerrors.CodeIntegrity, "order item %s: %s %s", row.ID, field, problem).
		WithDetails(map[string]any{"order_id": row.OrderID.String(), "order_item_id": row.ID.String(), "field": field})
}
