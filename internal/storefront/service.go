// Package storefront serves the public catalog reads through the read cache.
package storefront

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/readcache"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type catalogReader interface {
	GetActiveProducts(ctx context.Context) ([]catalog.Product, error)
	GetFeaturedProducts(ctx context.Context) ([]catalog.Product, error)
	Resolve(ctx context.Context, ref string) (*catalog.Resolution, error)
}

type availabilityReader interface {
	Availability(ctx context.Context, productID uuid.UUID, size string) (*stock.Availability, error)
}

type Service struct {
	catalog catalogReader
	stock   availabilityReader
	cache   *readcache.Cache
}

// NewService wires the storefront reads. cache may be nil.
func NewService(catalogSvc catalogReader, stockSvc availabilityReader, cache *readcache.Cache) (*Service, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	return &Service{catalog: catalogSvc, stock: stockSvc, cache: cache}, nil
}

func (s *Service) ActiveProducts(ctx context.Context) ([]catalog.Product, error) {
	products, _, err := readcache.Fetch(ctx, s.cache, "products:active", []string{readcache.TagActiveProducts},
		func(ctx context.Context) ([]catalog.Product, bool, error) {
			list, err := s.catalog.GetActiveProducts(ctx)
			return list, err == nil, err
		})
	return products, err
}

func (s *Service) FeaturedProducts(ctx context.Context) ([]catalog.Product, error) {
	products, _, err := readcache.Fetch(ctx, s.cache, "products:featured", []string{readcache.TagActiveProducts},
		func(ctx context.Context) ([]catalog.Product, bool, error) {
			list, err := s.catalog.GetFeaturedProducts(ctx)
			return list, err == nil, err
		})
	return products, err
}

// Product resolves a slug, id or legacy id to an active product. Inactive
// products are hidden from the storefront.
func (s *Service) Product(ctx context.Context, ref string) (*catalog.Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	name := "product:ref:" + ref
	res, found, err := readcache.Fetch(ctx, s.cache, name, []string{readcache.TagActiveProducts},
		func(ctx context.Context) (catalog.Resolution, bool, error) {
			res, err := s.catalog.Resolve(ctx, ref)
			if err != nil || res == nil || !res.Product.IsActive {
				return catalog.Resolution{}, false, err
			}
			return *res, true, nil
		})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.cache.Tag(ctx, name, readcache.ProductTag(res.Product.ID.String()))
	return &res, nil
}

// Availability is never cached.
func (s *Service) Availability(ctx context.Context, productID, size string) (*stock.Availability, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.stock.Availability(ctx, id, size)
}
