package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// StockReader lists ledger rows for the back office.
type StockReader interface {
	ListAll(ctx context.Context) ([]stock.StockLevel, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]stock.StockLevel, error)
	TotalsByProduct(ctx context.Context) (map[uuid.UUID]int, error)
	LowStockAlerts(ctx context.Context) ([]stock.StockLevel, error)
}

// AdminStockList returns every stock row, or one product's rows when
// ?product_id is set.
func AdminStockList(svc StockReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			levels []stock.StockLevel
			err    error
		)
		if raw := r.URL.Query().Get("product_id"); raw != "" {
			productID, perr := uuid.Parse(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid product id").
					WithDetails(map[string]any{"field": "product_id"}))
				return
			}
			levels, err = svc.ListByProduct(r.Context(), productID)
		} else {
			levels, err = svc.ListAll(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(levels))
	}
}

func AdminStockTotals(svc StockReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := svc.TotalsByProduct(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

func AdminStockAlerts(svc StockReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.LowStockAlerts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(alerts))
	}
}

// setStockRequest keeps the quantity raw so strings and fractional numbers
// reach the ledger's parser and get a precise validation error.
type setStockRequest struct {
	Quantity json.Number `json:"quantity"`
}

func AdminSetStock(svc BackOffice, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var raw any
		if payload.Quantity != "" {
			raw = payload.Quantity
		}
		adj, err := svc.SetStockQuantity(r.Context(), middleware.ActorIDFromContext(r.Context()), chi.URLParam(r, "stockLevelId"), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adj)
	}
}
