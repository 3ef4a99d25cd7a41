package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service is the stock ledger: one quantity per (product, size).
type Service interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]StockLevel, error)
	ListAll(ctx context.Context) ([]StockLevel, error)
	TotalsByProduct(ctx context.Context) (map[uuid.UUID]int, error)
	// SetQuantity overwrites a row's quantity. Concurrent writers race and the last one wins.
	SetQuantity(ctx context.Context, stockLevelID string, quantity int) (*Adjustment, error)
	LowStockAlerts(ctx context.Context) ([]StockLevel, error)
	CreateForProduct(ctx context.Context, productID uuid.UUID, sizes []string, threshold int) ([]StockLevel, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	Availability(ctx context.Context, productID uuid.UUID, size string) (*Availability, error)
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error
}

type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: params.Now}, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]StockLevel, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock levels")
	}
	return decodeStockLevels(rows)
}

func (s *service) ListAll(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock levels")
	}
	return decodeStockLevels(rows)
}

func (s *service) TotalsByProduct(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock levels")
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = int(row.Total)
	}
	return out, nil
}

func (s *service) SetQuantity(ctx context.Context, stockLevelID string, quantity int) (*Adjustment, error) {
	id, err := uuid.Parse(strings.TrimSpace(stockLevelID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock level id")
	}
	if _, err := checkQuantity(int64(quantity)); err != nil {
		return nil, err
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock level not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock level")
	}
	previous := row.Quantity

	at := s.now().UTC()
	updated, err := s.repo.SetQuantity(ctx, id, quantity, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock level")
	}
	if !updated {
		// deleted between the read and the write
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock level not found")
	}

	row.Quantity = quantity
	row.UpdatedAt = at
	level, err := decodeStockLevel(*row)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithProductID(ctx, level.ProductID.String()), map[string]any{
		"stock_level_id":    level.ID.String(),
		"size":              level.Size,
		"previous_quantity": previous,
		"quantity":          quantity,
	})
	s.logg.Info(logCtx, "stock quantity set")

	return &Adjustment{Level: level, PreviousQuantity: previous}, nil
}

func (s *service) LowStockAlerts(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.repo.ListLow(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return decodeStockLevels(rows)
}

// CreateForProduct adds an empty row for each size that has none yet.
func (s *service) CreateForProduct(ctx context.Context, productID uuid.UUID, sizes []string, threshold int) ([]StockLevel, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must be >= 0").
			WithDetails(map[string]any{"field": "low_threshold"})
	}

	existing, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock levels")
	}
	seen := make(map[string]struct{}, len(existing)+len(sizes))
	for _, row := range existing {
		seen[strings.TrimSpace(row.Size)] = struct{}{}
	}

	now := s.now().UTC()
	var rows []models.StockLevel
	for _, size := range sizes {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		if _, ok := seen[size]; ok {
			continue
		}
		seen[size] = struct{}{}
		rows = append(rows, models.StockLevel{
			ID:           uuid.New(),
			ProductID:    productID,
			Size:         size,
			Quantity:     0,
			LowThreshold: threshold,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.repo.InsertMany(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock levels")
	}
	if len(rows) > 0 {
		s.logg.Info(s.logg.WithField(s.logg.WithProductID(ctx, productID.String()), "created", len(rows)), "stock levels created")
	}
	return decodeStockLevels(rows)
}

func (s *service) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock levels")
	}
	return deleted, nil
}

func (s *service) Availability(ctx context.Context, productID uuid.UUID, size string) (*Availability, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is required").
			WithDetails(map[string]any{"field": "size"})
	}
	out := &Availability{ProductID: productID, Size: size}

	row, err := s.repo.FindByProductSize(ctx, productID, size)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock level")
	}
	level, err := decodeStockLevel(*row)
	if err != nil {
		return nil, err
	}
	out.Size = level.Size
	out.Quantity = level.Quantity
	out.InStock = !level.OutOfStock
	out.LowStock = level.Low
	return out, nil
}

// Decrement takes qty units of a size off the shelf inside tx. Running short
// is a conflict and leaves the row alone.
func (s *service) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be > 0")
	}
	ok, err := s.repo.WithTx(tx).Decrement(ctx, productID, strings.TrimSpace(size), qty, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for size %s", size).
			WithDetails(map[string]any{"product_id": productID.String(), "size": size, "requested": qty})
	}
	return nil
}
