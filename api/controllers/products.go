package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/backoffice"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// BackOffice is the staff mutation surface.
type BackOffice interface {
	CreateProduct(ctx context.Context, actorID string, input catalog.CreateInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, actorID, id string, input catalog.UpdateInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	SetStockQuantity(ctx context.Context, actorID, stockLevelID string, raw any) (*stock.Adjustment, error)
	Dashboard(ctx context.Context) (*backoffice.Dashboard, error)
}

type createProductRequest struct {
	Name            string           `json:"name" validate:"required"`
	Slug            string           `json:"slug,omitempty"`
	LegacyID        *string          `json:"legacy_id,omitempty"`
	Description     string           `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Images          []string         `json:"images,omitempty"`
	Colors          []string         `json:"colors,omitempty"`
	Sizes           []string         `json:"sizes,omitempty"`
	SKU             *string          `json:"sku,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	IsFeatured      bool             `json:"is_featured,omitempty"`
}

func (p createProductRequest) toCreateInput() catalog.CreateInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalog.CreateInput{
		Name:            p.Name,
		Slug:            p.Slug,
		LegacyID:        p.LegacyID,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		Images:          p.Images,
		Colors:          p.Colors,
		Sizes:           p.Sizes,
		SKU:             p.SKU,
		IsActive:        active,
		IsFeatured:      p.IsFeatured,
	}
}

type updateProductRequest struct {
	Name            *string          `json:"name,omitempty"`
	Slug            *string          `json:"slug,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	ClearDiscount   bool             `json:"clear_discount,omitempty"`
	Images          *[]string        `json:"images,omitempty"`
	Colors          *[]string        `json:"colors,omitempty"`
	Sizes           *[]string        `json:"sizes,omitempty"`
	SKU             *string          `json:"sku,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	IsFeatured      *bool            `json:"is_featured,omitempty"`
}

func (p updateProductRequest) toUpdateInput() catalog.UpdateInput {
	return catalog.UpdateInput{
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		ClearDiscount:   p.ClearDiscount,
		Images:          p.Images,
		Colors:          p.Colors,
		Sizes:           p.Sizes,
		SKU:             p.SKU,
		IsActive:        p.IsActive,
		IsFeatured:      p.IsFeatured,
	}
}

// AdminCreateProduct handles product creation from the back office.
func AdminCreateProduct(svc BackOffice, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), middleware.ActorIDFromContext(r.Context()), payload.toCreateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc BackOffice, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(ctx, chi.URLParam(r, "productId"))
		}
		product, err := svc.UpdateProduct(ctx, middleware.ActorIDFromContext(ctx), chi.URLParam(r, "productId"), payload.toUpdateInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc BackOffice, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productId")
		if err := svc.DeleteProduct(r.Context(), middleware.ActorIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminDashboard(svc BackOffice, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}
