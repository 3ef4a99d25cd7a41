// Package backoffice runs the staff-facing mutations: each one touches the
// catalog or the ledger, leaves an audit entry and drops stale cached reads.
package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/internal/audit"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/readcache"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// DashboardRecent is how many orders the dashboard shows.
const DashboardRecent = 10

type catalogWriter interface {
	Create(ctx context.Context, input catalog.CreateInput) (*catalog.Product, error)
	Update(ctx context.Context, id string, input catalog.UpdateInput) (*catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

type ledger interface {
	SetQuantity(ctx context.Context, stockLevelID string, quantity int) (*stock.Adjustment, error)
	LowStockAlerts(ctx context.Context) ([]stock.StockLevel, error)
	CreateForProduct(ctx context.Context, productID uuid.UUID, sizes []string, threshold int) ([]stock.StockLevel, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type orderReader interface {
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int, error)
	AggregateTotalAmount(ctx context.Context) (decimal.Decimal, error)
	GetRecentWithItems(ctx context.Context, limit int) ([]orders.OrderWithItems, error)
}

type invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// StockObserver receives ledger activity for metrics.
type StockObserver interface {
	StockUpdated()
	SetLowStock(n int)
}

// Dashboard is the back office landing summary.
type Dashboard struct {
	OrdersByStatus map[enums.OrderStatus]int `json:"orders_by_status"`
	TotalRevenue   decimal.Decimal           `json:"total_revenue"`
	LowStock       []stock.StockLevel        `json:"low_stock"`
	RecentOrders   []orders.OrderWithItems   `json:"recent_orders"`
}

type ServiceParams struct {
	Catalog   catalogWriter
	Stock     ledger
	Orders    orderReader
	Audit     audit.Appender
	Cache     invalidator
	Observer  StockObserver
	Logger    *logger.Logger
	Threshold int
}

type Service struct {
	catalog   catalogWriter
	stock     ledger
	orders    orderReader
	audit     audit.Appender
	cache     invalidator
	observer  StockObserver
	logg      *logger.Logger
	threshold int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit appender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Threshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be >= 0")
	}
	return &Service{
		catalog:   params.Catalog,
		stock:     params.Stock,
		orders:    params.Orders,
		audit:     params.Audit,
		cache:     params.Cache,
		observer:  params.Observer,
		logg:      params.Logger,
		threshold: params.Threshold,
	}, nil
}

// CreateProduct stores the product and opens an empty stock row per size.
func (s *Service) CreateProduct(ctx context.Context, actorID string, input catalog.CreateInput) (*catalog.Product, error) {
	product, err := s.catalog.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.stock.CreateForProduct(ctx, product.ID, product.Sizes, s.threshold); err != nil {
		return nil, err
	}
	if err := s.record(ctx, enums.AuditActionProductCreated, enums.AuditEntityProduct, product.ID.String(), actorID, map[string]any{
		"name": product.Name,
		"slug": product.Slug,
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, readcache.TagActiveProducts)
	return product, nil
}

// UpdateProduct applies input and opens stock rows for newly declared sizes.
// Rows for sizes no longer declared are left in place.
func (s *Service) UpdateProduct(ctx context.Context, actorID, id string, input catalog.UpdateInput) (*catalog.Product, error) {
	product, err := s.catalog.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if input.Sizes != nil {
		if _, err := s.stock.CreateForProduct(ctx, product.ID, product.Sizes, s.threshold); err != nil {
			return nil, err
		}
	}
	if err := s.record(ctx, enums.AuditActionProductUpdated, enums.AuditEntityProduct, product.ID.String(), actorID, map[string]any{
		"slug":      product.Slug,
		"is_active": product.IsActive,
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, readcache.ProductTag(product.ID.String()), readcache.TagActiveProducts)
	return product, nil
}

// DeleteProduct removes the product, then its stock rows. The two deletes are
// separate writes; a failure in between leaves orphaned stock rows.
func (s *Service) DeleteProduct(ctx context.Context, actorID, id string) error {
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	productID := uuid.MustParse(strings.TrimSpace(id))
	removed, err := s.stock.DeleteByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.record(ctx, enums.AuditActionProductDeleted, enums.AuditEntityProduct, productID.String(), actorID, map[string]any{
		"stock_levels_removed": removed,
	}); err != nil {
		return err
	}
	s.invalidate(ctx, readcache.ProductTag(productID.String()), readcache.TagActiveProducts)
	return nil
}

// SetStockQuantity overwrites one stock row. raw is the quantity as submitted.
func (s *Service) SetStockQuantity(ctx context.Context, actorID, stockLevelID string, raw any) (*stock.Adjustment, error) {
	quantity, err := stock.ParseQuantity(raw)
	if err != nil {
		return nil, err
	}
	adj, err := s.stock.SetQuantity(ctx, stockLevelID, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, enums.AuditActionStockUpdated, enums.AuditEntityStockLevel, adj.Level.ID.String(), actorID, map[string]any{
		"product_id":        adj.Level.ProductID.String(),
		"size":              adj.Level.Size,
		"previous_quantity": adj.PreviousQuantity,
		"quantity":          adj.Level.Quantity,
	}); err != nil {
		return nil, err
	}

	if s.observer != nil {
		s.observer.StockUpdated()
		if alerts, err := s.stock.LowStockAlerts(ctx); err != nil {
			s.logg.Error(ctx, "refresh low stock gauge", err)
		} else {
			s.observer.SetLowStock(len(alerts))
		}
	}
	s.invalidate(ctx, readcache.ProductTag(adj.Level.ProductID.String()))
	return adj, nil
}

// Dashboard loads the four summary reads concurrently and fails if any does.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.orders.CountByStatus(gctx)
		out.OrdersByStatus = counts
		return err
	})
	g.Go(func() error {
		total, err := s.orders.AggregateTotalAmount(gctx)
		out.TotalRevenue = total
		return err
	})
	g.Go(func() error {
		low, err := s.stock.LowStockAlerts(gctx)
		out.LowStock = low
		return err
	})
	g.Go(func() error {
		recent, err := s.orders.GetRecentWithItems(gctx, DashboardRecent)
		out.RecentOrders = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.SetLowStock(len(out.LowStock))
	}
	return &out, nil
}

func (s *Service) record(ctx context.Context, action enums.AuditAction, entity enums.AuditEntityType, entityID, actorID string, details map[string]any) error {
	_, err := s.audit.Append(ctx, nil, audit.Entry{
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
	})
	return err
}

// invalidate logs failures; stale entries expire with their TTL.
func (s *Service) invalidate(ctx context.Context, tags ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "tags", tags), "read cache invalidation failed", err)
	}
}
