package backoffice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/audit"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/readcache"
	"github.com/angelmondragon/storefront-backend/internal/readcache/readcachetest"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type gaugeObserver struct {
	mu      sync.Mutex
	updates int
	low     int
}

func (g *gaugeObserver) StockUpdated() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
}

func (g *gaugeObserver) SetLowStock(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.low = n
}

type env struct {
	svc      *Service
	catalog  catalog.Service
	stock    stock.Service
	orders   orders.Service
	trail    *audit.Trail
	store    *readcachetest.Store
	cache    *readcache.Cache
	observer *gaugeObserver
}

func newEnv(t *testing.T) env {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.Nop()
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Repo: catalog.NewRepository(client.DB()), Logger: logg, Now: now})
	require.NoError(t, err)
	stockSvc, err := stock.NewService(stock.ServiceParams{Repo: stock.NewRepository(client.DB()), Logger: logg, Now: now})
	require.NoError(t, err)
	trail, err := audit.NewTrail(audit.NewRepository(client.DB()), logg, now)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(client.DB()),
		Tx:       client,
		Products: catalogSvc,
		Audit:    trail,
		Logger:   logg,
		Now:      now,
	})
	require.NoError(t, err)

	store := readcachetest.NewStore()
	cache := readcache.New(store, time.Minute, logg, nil)
	observer := &gaugeObserver{}
	svc, err := NewService(ServiceParams{
		Catalog:   catalogSvc,
		Stock:     stockSvc,
		Orders:    orderSvc,
		Audit:     trail,
		Cache:     cache,
		Observer:  observer,
		Logger:    logg,
		Threshold: 3,
	})
	require.NoError(t, err)
	return env{svc: svc, catalog: catalogSvc, stock: stockSvc, orders: orderSvc, trail: trail, store: store, cache: cache, observer: observer}
}

func productInput(name string, sizes ...string) catalog.CreateInput {
	return catalog.CreateInput{
		Name:     name,
		Price:    decimal.RequireFromString("45.00"),
		Sizes:    sizes,
		IsActive: true,
	}
}

func (e env) actions(t *testing.T, entity enums.AuditEntityType, id string) []enums.AuditAction {
	t.Helper()
	logs, err := e.trail.ListByEntity(context.Background(), entity, id)
	require.NoError(t, err)
	out := make([]enums.AuditAction, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

// warm caches the active listing so invalidation can be observed.
func (e env) warm(t *testing.T, name string, tags ...string) {
	t.Helper()
	_, _, err := readcache.Fetch(context.Background(), e.cache, name, tags, func(context.Context) ([]string, bool, error) {
		return []string{"x"}, true, nil
	})
	require.NoError(t, err)
	require.Contains(t, e.store.Values, e.store.CacheKey(name))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateProductOpensStockRowsAndAudits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.warm(t, "products:active", readcache.TagActiveProducts)

	product, err := e.svc.CreateProduct(ctx, "staff-1", productInput("Waxed Cap", "S", "M"))
	require.NoError(t, err)

	levels, err := e.stock.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	for _, l := range levels {
		assert.Equal(t, 0, l.Quantity)
		assert.Equal(t, 3, l.LowThreshold)
	}

	logs, err := e.trail.ListByEntity(ctx, enums.AuditEntityProduct, product.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.AuditActionProductCreated, logs[0].Action)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, "staff-1", *logs[0].ActorID)

	assert.NotContains(t, e.store.Values, e.store.CacheKey("products:active"))
}

func TestCreateProductValidationLeavesNoTrace(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateProduct(context.Background(), "staff-1", productInput("   ", "M"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	all, err := e.stock.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateProductAddsNewSizes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	product, err := e.svc.CreateProduct(ctx, "staff-1", productInput("Rain Shell", "M"))
	require.NoError(t, err)
	e.warm(t, "product:ref:rain-shell", readcache.ProductTag(product.ID.String()))

	sizes := []string{"M", "XL"}
	updated, err := e.svc.UpdateProduct(ctx, "staff-2", product.ID.String(), catalog.UpdateInput{Sizes: &sizes})
	require.NoError(t, err)
	assert.Equal(t, sizes, updated.Sizes)

	levels, err := e.stock.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "M", levels[0].Size)
	assert.Equal(t, "XL", levels[1].Size)

	assert.Equal(t, []enums.AuditAction{enums.AuditActionProductCreated, enums.AuditActionProductUpdated},
		e.actions(t, enums.AuditEntityProduct, product.ID.String()))
	assert.NotContains(t, e.store.Values, e.store.CacheKey("product:ref:rain-shell"))
}

func TestUpdateUnknownProductIsNotFound(t *testing.T) {
	e := newEnv(t)
	name := "Ghost"
	_, err := e.svc.UpdateProduct(context.Background(), "staff-1", uuid.NewString(), catalog.UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteProductRemovesStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	product, err := e.svc.CreateProduct(ctx, "staff-1", productInput("Linen Shirt", "S", "M", "L"))
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteProduct(ctx, "staff-1", product.ID.String()))

	levels, err := e.stock.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, levels)
	got, err := e.catalog.GetByID(ctx, product.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got)

	logs, err := e.trail.ListByEntity(ctx, enums.AuditEntityProduct, product.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, enums.AuditActionProductDeleted, logs[1].Action)
	assert.EqualValues(t, 3, logs[1].Details["stock_levels_removed"])

	err = e.svc.DeleteProduct(ctx, "staff-1", product.ID.String())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSetStockQuantityAuditsPreviousValue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	product, err := e.svc.CreateProduct(ctx, "staff-1", productInput("Phantom Thread Tee", "M", "L"))
	require.NoError(t, err)
	levels, err := e.stock.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	medium := levels[1]
	require.Equal(t, "M", medium.Size)

	adj, err := e.svc.SetStockQuantity(ctx, "staff-9", medium.ID.String(), "12")
	require.NoError(t, err)
	assert.Equal(t, 0, adj.PreviousQuantity)
	assert.Equal(t, 12, adj.Level.Quantity)

	adj, err = e.svc.SetStockQuantity(ctx, "staff-9", medium.ID.String(), float64(2))
	require.NoError(t, err)
	assert.Equal(t, 12, adj.PreviousQuantity)
	assert.True(t, adj.Level.Low)

	logs, err := e.trail.ListByEntity(ctx, enums.AuditEntityStockLevel, medium.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, enums.AuditActionStockUpdated, logs[1].Action)
	assert.Equal(t, product.ID.String(), logs[1].Details["product_id"])
	assert.Equal(t, "M", logs[1].Details["size"])
	assert.EqualValues(t, 12, logs[1].Details["previous_quantity"])
	assert.EqualValues(t, 2, logs[1].Details["quantity"])

	// L is still at zero, M is at two: both at or under the threshold of three.
	assert.Equal(t, 2, e.observer.updates)
	assert.Equal(t, 2, e.observer.low)
}

func TestSetStockQuantityRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, raw := range []any{-1, "abc", 2.5, nil} {
		_, err := e.svc.SetStockQuantity(ctx, "staff-1", uuid.NewString(), raw)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "raw=%v", raw)
	}

	_, err := e.svc.SetStockQuantity(ctx, "staff-1", uuid.NewString(), 4)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, e.observer.updates)
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	product, err := e.svc.CreateProduct(ctx, "staff-1", productInput("Denim Jacket", "M"))
	require.NoError(t, err)

	for _, total := range []string{"100.00", "25.75"} {
		_, err := e.orders.Create(ctx, orders.CreateInput{
			CustomerEmail: "buyer@example.com",
			CustomerName:  "Ada Buyer",
			TotalAmount:   decimal.RequireFromString(total),
			ShippingAddress: types.ShippingAddress{
				Name: "Ada Buyer", Line1: "1 Market St", City: "Portland",
				State: "OR", PostalCode: "97201", Country: "US",
			},
			Items: []orders.ItemInput{{ProductID: product.ID, Quantity: 1, Size: "M"}},
		})
		require.NoError(t, err)
	}

	dash, err := e.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.OrdersByStatus[enums.OrderStatusPending])
	assert.Equal(t, 0, dash.OrdersByStatus[enums.OrderStatusDelivered])
	assert.True(t, dash.TotalRevenue.Equal(decimal.RequireFromString("125.75")))
	require.Len(t, dash.LowStock, 1)
	require.Len(t, dash.RecentOrders, 2)
	assert.Equal(t, "Denim Jacket", dash.RecentOrders[0].Items[0].Product.Name)
	assert.Equal(t, 1, e.observer.low)
}
