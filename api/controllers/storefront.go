package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// StorefrontReader is the public, cached catalog.
type StorefrontReader interface {
	ActiveProducts(ctx context.Context) ([]catalog.Product, error)
	FeaturedProducts(ctx context.Context) ([]catalog.Product, error)
	Product(ctx context.Context, ref string) (*catalog.Resolution, error)
	Availability(ctx context.Context, productID, size string) (*stock.Availability, error)
}

func StorefrontProducts(svc StorefrontReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ActiveProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(products))
	}
}

func StorefrontFeatured(svc StorefrontReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.FeaturedProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(products))
	}
}

// StorefrontProduct resolves a slug, product id or legacy id. When the
// reference is not the canonical slug the response carries redirect=true and
// a Location header pointing at the slug.
func StorefrontProduct(svc StorefrontReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "product")
		res, err := svc.Product(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if res.Redirect {
			w.Header().Set("Location", "/api/v1/products/"+res.Product.Slug)
		}
		responses.WriteSuccess(w, res)
	}
}

func StorefrontAvailability(svc StorefrontReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		size := strings.TrimSpace(r.URL.Query().Get("size"))
		if size == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "size is required").
				WithDetails(map[string]any{"field": "size"}))
			return
		}
		availability, err := svc.Availability(r.Context(), chi.URLParam(r, "product"), size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
