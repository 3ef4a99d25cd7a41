// Package orders exposes the back office order endpoints.
package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/audit"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service is the order surface the admin endpoints need.
type Service interface {
	ListPage(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*types.Page[internalorders.Order], error)
	GetRecentWithItems(ctx context.Context, limit int) ([]internalorders.OrderWithItems, error)
	GetWithItems(ctx context.Context, id string) (*internalorders.OrderWithItems, error)
	Transition(ctx context.Context, id string, input internalorders.TransitionInput) (*internalorders.Order, error)
	UpdateNotes(ctx context.Context, id, notes string) (*internalorders.Order, error)
}

// AuditReader lists the audit entries for an entity.
type AuditReader interface {
	ListByEntity(ctx context.Context, entityType enums.AuditEntityType, entityID string) ([]audit.Log, error)
}

const maxNotesLength = 2000

// List returns a cursor page of orders, newest first, optionally filtered by ?status.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		page, err := svc.ListPage(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, page)
	}
}

func Recent(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, internalorders.MaxRecent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recent, err := svc.GetRecentWithItems(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if recent == nil {
			recent = []internalorders.OrderWithItems{}
		}
		responses.WriteSuccess(w, recent)
	}
}

func Detail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetWithItems(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type transitionRequest struct {
	Status          string  `json:"status" validate:"required"`
	PaymentID       *string `json:"payment_id,omitempty"`
	TrackingNumber  *string `json:"tracking_number,omitempty"`
	TrackingCarrier *string `json:"tracking_carrier,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// Transition moves an order to the requested status.
func Transition(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}

		orderID := chi.URLParam(r, "orderId")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		order, err := svc.Transition(ctx, orderID, internalorders.TransitionInput{
			To:              to,
			PaymentID:       payload.PaymentID,
			TrackingNumber:  payload.TrackingNumber,
			TrackingCarrier: payload.TrackingCarrier,
			Reason:          validators.SanitizeString(payload.Reason, 500),
			ActorID:         middleware.ActorIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func UpdateNotes(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload notesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateNotes(r.Context(), chi.URLParam(r, "orderId"), validators.SanitizeString(payload.Notes, maxNotesLength))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AuditTrail lists the order's audit entries, oldest first.
func AuditTrail(trail AuditReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := trail.ListByEntity(r.Context(), enums.AuditEntityOrder, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logs == nil {
			logs = []audit.Log{}
		}
		responses.WriteSuccess(w, logs)
	}
}

func parseStatusFilter(r *http.Request) (*enums.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
			WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}
