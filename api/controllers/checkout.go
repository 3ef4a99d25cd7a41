package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderPlacer creates orders from storefront checkouts.
type OrderPlacer interface {
	Create(ctx context.Context, input orders.CreateInput) (*orders.Order, error)
}

const maxNotesLength = 2000

type placeOrderRequest struct {
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	CustomerName    string                `json:"customer_name" validate:"required"`
	// TotalAmount is the amount the payment gateway charged. It is recorded
	// as sent and not recomputed from item prices.
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	Items           []placeOrderItem      `json:"items" validate:"required,min=1,dive"`
	Notes           *string               `json:"notes,omitempty"`
}

type placeOrderItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	DesignID  *string   `json:"design_id,omitempty"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	Size      string    `json:"size" validate:"required"`
	Color     string    `json:"color,omitempty"`
}

func (p placeOrderRequest) toCreateInput() orders.CreateInput {
	input := orders.CreateInput{
		CustomerEmail:   p.CustomerEmail,
		CustomerName:    validators.SanitizeString(p.CustomerName, 200),
		TotalAmount:     p.TotalAmount,
		ShippingAddress: p.ShippingAddress,
		Items:           make([]orders.ItemInput, 0, len(p.Items)),
	}
	if p.Notes != nil {
		notes := validators.SanitizeString(*p.Notes, maxNotesLength)
		input.Notes = &notes
	}
	for _, item := range p.Items {
		input.Items = append(input.Items, orders.ItemInput{
			ProductID: item.ProductID,
			DesignID:  item.DesignID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return input
}

// PlaceOrder accepts a storefront checkout and returns the PENDING order.
func PlaceOrder(svc OrderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), payload.toCreateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
