package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/audit"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type fixture struct {
	svc      Service
	repo     Repository
	client   *db.Client
	catalog  catalog.Service
	trail    *audit.Trail
	stock    stock.Service
	recorder *fakeRecorder
	now      func() time.Time
}

type fakeRecorder struct {
	mu    sync.Mutex
	moves []string
}

func (f *fakeRecorder) OrderTransitioned(from, to enums.OrderStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, string(from)+"->"+string(to))
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type fixtureOption func(*ServiceParams)

func withPolicy(policy enums.StockPolicy) fixtureOption {
	return func(p *ServiceParams) { p.Policy = policy }
}

func withRepo(wrap func(Repository) Repository) fixtureOption {
	return func(p *ServiceParams) { p.Repo = wrap(p.Repo) }
}

func withAudit(appender audit.Appender) fixtureOption {
	return func(p *ServiceParams) { p.Audit = appender }
}

func newFixture(t *testing.T, opts ...fixtureOption) fixture {
	t.Helper()
	client := dbtest.Open(t)
	now := steppingClock()
	logg := logger.Nop()

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Repo: catalog.NewRepository(client.DB()), Logger: logg, Now: now})
	require.NoError(t, err)
	trail, err := audit.NewTrail(audit.NewRepository(client.DB()), logg, now)
	require.NoError(t, err)
	stockSvc, err := stock.NewService(stock.ServiceParams{Repo: stock.NewRepository(client.DB()), Logger: logg, Now: now})
	require.NoError(t, err)

	repo := NewRepository(client.DB())
	recorder := &fakeRecorder{}
	params := ServiceParams{
		Repo:     repo,
		Tx:       client,
		Products: catalogSvc,
		Audit:    trail,
		Logger:   logg,
		Stock:    stockSvc,
		Recorder: recorder,
		Now:      now,
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	return fixture{
		svc:      svc,
		repo:     repo,
		client:   client,
		catalog:  catalogSvc,
		trail:    trail,
		stock:    stockSvc,
		recorder: recorder,
		now:      now,
	}
}

func (f fixture) product(t *testing.T, name string) catalog.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), catalog.CreateInput{
		Name:     name,
		Price:    decimal.RequireFromString("2499"),
		Sizes:    []string{"S", "M", "L"},
		IsActive: true,
	})
	require.NoError(t, err)
	return *p
}

func (f fixture) order(t *testing.T, product catalog.Product, total string) *Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), orderInput(product, total))
	require.NoError(t, err)
	return o
}

func orderInput(product catalog.Product, total string) CreateInput {
	return CreateInput{
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Ada Buyer",
		TotalAmount:   decimal.RequireFromString(total),
		ShippingAddress: types.ShippingAddress{
			Name:       "Ada Buyer",
			Line1:      "1 Market St",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
		Items: []ItemInput{{ProductID: product.ID, Quantity: 1, Size: "M", Color: "black"}},
	}
}

func (f fixture) auditActions(t *testing.T, orderID string) []enums.AuditAction {
	t.Helper()
	logs, err := f.trail.ListByEntity(context.Background(), enums.AuditEntityOrder, orderID)
	require.NoError(t, err)
	out := make([]enums.AuditAction, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}
