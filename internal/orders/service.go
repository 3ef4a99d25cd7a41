package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/audit"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	// MaxRecent caps GetRecent and GetRecentWithItems.
	MaxRecent = 100
)

// Service owns order creation, status transitions and order reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Order, error)
	// GetByID returns nil, nil for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*Order, error)
	GetAll(ctx context.Context, status *enums.OrderStatus) ([]Order, error)
	GetRecent(ctx context.Context, limit int) ([]Order, error)
	ListPage(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*types.Page[Order], error)
	GetWithItems(ctx context.Context, id string) (*OrderWithItems, error)
	GetRecentWithItems(ctx context.Context, limit int) ([]OrderWithItems, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int, error)
	AggregateTotalAmount(ctx context.Context) (decimal.Decimal, error)
	Transition(ctx context.Context, id string, input TransitionInput) (*Order, error)
	MarkPaid(ctx context.Context, id, paymentID, actorID string) (*Order, error)
	MarkShipped(ctx context.Context, id, trackingNumber, trackingCarrier, actorID string) (*Order, error)
	Cancel(ctx context.Context, id, reason, actorID string) (*Order, error)
	UpdateNotes(ctx context.Context, id, notes string) (*Order, error)
}

// CreateInput is a checkout submitted by the storefront.
type CreateInput struct {
	CustomerEmail   string
	CustomerName    string
	TotalAmount     decimal.Decimal
	ShippingAddress types.ShippingAddress
	Items           []ItemInput
	Notes           *string
}

type ItemInput struct {
	ProductID uuid.UUID
	DesignID  *string
	Quantity  int
	Size      string
	Color     string
}

// TransitionInput moves an order to To. The optional fields are written with
// the status when set.
type TransitionInput struct {
	To              enums.OrderStatus
	PaymentID       *string
	TrackingNumber  *string
	TrackingCarrier *string
	Reason          string
	ActorID         string
}

type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Products ProductLookup
	Audit    audit.Appender
	Logger   *logger.Logger
	// Stock is only required by the decrement_on_create policy.
	Stock    StockDecrementer
	Policy   enums.StockPolicy
	Recorder TransitionRecorder
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	products ProductLookup
	audit    audit.Appender
	logg     *logger.Logger
	stock    StockDecrementer
	policy   enums.StockPolicy
	recorder TransitionRecorder
	now      func() time.Time
}

var emailValidator = validator.New()

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit appender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Policy == "" {
		params.Policy = enums.StockPolicyManual
	}
	if !params.Policy.IsValid() {
		return nil, fmt.Errorf("unknown stock policy %q", params.Policy)
	}
	if params.Policy == enums.StockPolicyDecrementOnCreate && params.Stock == nil {
		return nil, fmt.Errorf("stock decrementer required for %s policy", params.Policy)
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		audit:    params.Audit,
		logg:     params.Logger,
		stock:    params.Stock,
		policy:   params.Policy,
		recorder: params.Recorder,
		now:      params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sizes := make([]string, len(input.Items))
	for i, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, itemError(i, "product_id", fmt.Sprintf("product %s does not exist", item.ProductID))
		}
		sizes[i] = strings.TrimSpace(item.Size)
		if len(product.Sizes) == 0 {
			continue
		}
		canonical, offered := matchSize(product.Sizes, sizes[i])
		if !offered {
			return nil, itemError(i, "size", fmt.Sprintf("size %q is not offered for %s", item.Size, product.Name))
		}
		sizes[i] = canonical
	}

	now := s.now().UTC()
	row := models.Order{
		ID:              uuid.New(),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		Status:          enums.OrderStatusPending,
		TotalAmount:     input.TotalAmount,
		ShippingAddress: input.ShippingAddress,
		Notes:           trimmedPtr(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, item := range input.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   row.ID,
			ProductID: item.ProductID,
			DesignID:  trimmedPtr(item.DesignID),
			Quantity:  item.Quantity,
			Size:      sizes[i],
			Color:     strings.TrimSpace(item.Color),
			CreatedAt: now,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if s.policy != enums.StockPolicyDecrementOnCreate {
			return nil
		}
		for _, item := range items {
			if err := s.stock.Decrement(ctx, tx, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := decodeOrder(row)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, row.ID.String()), map[string]any{
		"items":        len(items),
		"stock_policy": s.policy,
	})
	s.logg.Info(logCtx, "order created")
	return &order, nil
}

func validateCreate(input CreateInput) error {
	if err := emailValidator.Var(strings.TrimSpace(input.CustomerEmail), "required,email"); err != nil {
		return fieldError("customer_email", "a valid customer email is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return fieldError("customer_name", "customer name is required")
	}
	if input.TotalAmount.IsNegative() {
		return fieldError("total_amount", "total amount must be >= 0")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return fieldError("shipping_address", err.Error())
	}
	if len(input.Items) == 0 {
		return fieldError("items", "at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return itemError(i, "product_id", "product id is required")
		}
		if item.Quantity <= 0 {
			return itemError(i, "quantity", "quantity must be > 0")
		}
		if strings.TrimSpace(item.Size) == "" {
			return itemError(i, "size", "size is required")
		}
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, nil
	}
	row, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	order, err := decodeOrder(*row)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *service) GetAll(ctx context.Context, status *enums.OrderStatus) ([]Order, error) {
	if status != nil && !status.IsValid() {
		return nil, fieldError("status", fmt.Sprintf("unknown order status %q", *status))
	}
	rows, err := s.repo.List(ctx, status, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return decodeOrders(rows)
}

func (s *service) GetRecent(ctx context.Context, limit int) ([]Order, error) {
	rows, err := s.repo.List(ctx, nil, clampRecent(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	return decodeOrders(rows)
}

func clampRecent(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxRecent {
		return MaxRecent
	}
	return limit
}

func (s *service) ListPage(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*types.Page[Order], error) {
	if status != nil && !status.IsValid() {
		return nil, fieldError("status", fmt.Sprintf("unknown order status %q", *status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListAfter(ctx, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	items, err := decodeOrders(rows)
	if err != nil {
		return nil, err
	}
	return &types.Page[Order]{Items: items, NextCursor: next}, nil
}

func (s *service) GetWithItems(ctx context.Context, id string) (*OrderWithItems, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}
	joined, err := s.attachItems(ctx, []Order{*order})
	if err != nil {
		return nil, err
	}
	return &joined[0], nil
}

func (s *service) GetRecentWithItems(ctx context.Context, limit int) ([]OrderWithItems, error) {
	recent, err := s.GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, recent)
}

// attachItems joins every item with its product. An item whose product is
// gone is an integrity error, never silently dropped.
func (s *service) attachItems(ctx context.Context, list []Order) ([]OrderWithItems, error) {
	orderIDs := make([]uuid.UUID, 0, len(list))
	for _, o := range list {
		orderIDs = append(orderIDs, o.ID)
	}
	rows, err := s.repo.ItemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	productIDs := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.ProductID]; !ok {
			seen[row.ProductID] = struct{}{}
			productIDs = append(productIDs, row.ProductID)
		}
	}
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]LineItem, len(list))
	for _, row := range rows {
		item, err := decodeOrderItem(row)
		if err != nil {
			return nil, err
		}
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeIntegrity, "order %s references missing product %s", item.OrderID, item.ProductID).
				WithDetails(map[string]any{"order_id": item.OrderID.String(), "product_id": item.ProductID.String()})
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], LineItem{OrderItem: item, Product: product})
	}

	out := make([]OrderWithItems, 0, len(list))
	for _, o := range list {
		items := byOrder[o.ID]
		if items == nil {
			items = []LineItem{}
		}
		out = append(out, OrderWithItems{Order: o, Items: items})
	}
	return out, nil
}

func (s *service) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int, error) {
	rows, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	out := make(map[enums.OrderStatus]int, len(enums.OrderStatuses()))
	for _, status := range enums.OrderStatuses() {
		out[status] = 0
	}
	for _, row := range rows {
		if !row.Status.IsValid() {
			s.logg.Warn(s.logg.WithField(ctx, "status", row.Status), "orders with unknown status left out of counts")
			continue
		}
		out[row.Status] = int(row.Total)
	}
	return out, nil
}

func (s *service) AggregateTotalAmount(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.repo.SumTotalAmount(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order totals")
	}
	return total, nil
}

func (s *service) MarkPaid(ctx context.Context, id, paymentID, actorID string) (*Order, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fieldError("payment_id", "payment id is required")
	}
	return s.Transition(ctx, id, TransitionInput{To: enums.OrderStatusPaid, PaymentID: &paymentID, ActorID: actorID})
}

func (s *service) MarkShipped(ctx context.Context, id, trackingNumber, trackingCarrier, actorID string) (*Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	trackingCarrier = strings.TrimSpace(trackingCarrier)
	if trackingNumber == "" {
		return nil, fieldError("tracking_number", "tracking number is required")
	}
	if trackingCarrier == "" {
		return nil, fieldError("tracking_carrier", "tracking carrier is required")
	}
	return s.Transition(ctx, id, TransitionInput{
		To:              enums.OrderStatusShipped,
		TrackingNumber:  &trackingNumber,
		TrackingCarrier: &trackingCarrier,
		ActorID:         actorID,
	})
}

func (s *service) Cancel(ctx context.Context, id, reason, actorID string) (*Order, error) {
	return s.Transition(ctx, id, TransitionInput{To: enums.OrderStatusCancelled, Reason: reason, ActorID: actorID})
}

// Transition moves the order forward. The status write is guarded by the
// status read in the same transaction and commits together with its audit
// entry. Asking for the current status with the stored payment or tracking
// values changes nothing; asking with different ones is a state conflict.
func (s *service) Transition(ctx context.Context, id string, input TransitionInput) (*Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	if !input.To.IsValid() {
		return nil, fieldError("status", fmt.Sprintf("unknown order status %q", input.To))
	}
	input, err = normalizeTransition(input)
	if err != nil {
		return nil, err
	}

	var (
		result   Order
		previous enums.OrderStatus
		changed  bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		current, err := decodeOrder(*row)
		if err != nil {
			return err
		}
		previous = current.Status
		if current.Status == input.To {
			if err := checkRepeat(current, input); err != nil {
				return err
			}
			result = current
			return nil
		}
		if err := checkTransition(current.Status, input.To); err != nil {
			return err
		}
		if input.To == enums.OrderStatusDelivered && current.TrackingNumber == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be shipped with tracking before delivery").
				WithDetails(map[string]any{"status": current.Status})
		}

		at := s.now().UTC()
		updates := map[string]any{"status": input.To, "updated_at": at}
		details := map[string]any{"status": input.To, "previous_status": current.Status}
		if input.PaymentID != nil {
			updates["payment_id"] = *input.PaymentID
			details["payment_id"] = *input.PaymentID
			current.PaymentID = input.PaymentID
		}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
			details["tracking_number"] = *input.TrackingNumber
			current.TrackingNumber = input.TrackingNumber
		}
		if input.TrackingCarrier != nil {
			updates["tracking_carrier"] = *input.TrackingCarrier
			details["tracking_carrier"] = *input.TrackingCarrier
			current.TrackingCarrier = input.TrackingCarrier
		}
		if reason := strings.TrimSpace(input.Reason); reason != "" {
			details["reason"] = reason
		}

		ok, err := repo.UpdateStatus(ctx, orderID, current.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently")
		}

		if _, err := s.audit.Append(ctx, tx, audit.Entry{
			Action:     enums.OrderAuditAction(input.To),
			EntityType: enums.AuditEntityOrder,
			EntityID:   orderID.String(),
			ActorID:    input.ActorID,
			Details:    details,
		}); err != nil {
			return err
		}

		current.Status = input.To
		current.UpdatedAt = at
		result = current
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if s.recorder != nil {
			s.recorder.OrderTransitioned(previous, result.Status)
		}
		logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
			"from": previous,
			"to":   result.Status,
		})
		if input.ActorID != "" {
			logCtx = s.logg.WithActorID(logCtx, input.ActorID)
		}
		s.logg.Info(logCtx, "order status changed")
	}
	return &result, nil
}

func (s *service) UpdateNotes(ctx context.Context, id, notes string) (*Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	at := s.now().UTC()
	ok, err := s.repo.UpdateNotes(ctx, orderID, trimmedPtr(&notes), at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order notes")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.GetByID(ctx, orderID.String())
}

// normalizeTransition trims the optional fields and checks that each one
// belongs to the requested status: tracking travels only with SHIPPED, where
// both parts are required, and a payment id only with PAID.
func normalizeTransition(input TransitionInput) (TransitionInput, error) {
	shipping := input.To == enums.OrderStatusShipped
	if !shipping {
		if input.TrackingNumber != nil {
			return input, fieldError("tracking_number", "tracking number is only accepted when shipping")
		}
		if input.TrackingCarrier != nil {
			return input, fieldError("tracking_carrier", "tracking carrier is only accepted when shipping")
		}
	}
	if input.PaymentID != nil {
		if input.To != enums.OrderStatusPaid {
			return input, fieldError("payment_id", "payment id is only accepted when marking paid")
		}
		if input.PaymentID = trimmedPtr(input.PaymentID); input.PaymentID == nil {
			return input, fieldError("payment_id", "payment id must not be blank")
		}
	}
	if shipping {
		if input.TrackingNumber = trimmedPtr(input.TrackingNumber); input.TrackingNumber == nil {
			return input, fieldError("tracking_number", "tracking number is required")
		}
		if input.TrackingCarrier = trimmedPtr(input.TrackingCarrier); input.TrackingCarrier == nil {
			return input, fieldError("tracking_carrier", "tracking carrier is required")
		}
	}
	return input, nil
}

// checkRepeat rejects a repeated status whose payment or tracking values
// differ from what the order already carries.
func checkRepeat(current Order, input TransitionInput) error {
	if input.PaymentID != nil && !sameValue(current.PaymentID, *input.PaymentID) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid with a different payment id")
	}
	if input.TrackingNumber != nil &&
		(!sameValue(current.TrackingNumber, *input.TrackingNumber) || !sameValue(current.TrackingCarrier, *input.TrackingCarrier)) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already shipped with different tracking")
	}
	return nil
}

func sameValue(stored *string, v string) bool {
	return stored != nil && *stored == v
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
}

func itemError(index int, field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"field": fmt.Sprintf("items[%d].%s", index, field)})
}

// matchSize finds v among the offered sizes ignoring case and returns the
// stored spelling.
func matchSize(offered []string, v string) (string, bool) {
	for _, candidate := range offered {
		if strings.EqualFold(candidate, v) {
			return candidate, true
		}
	}
	return "", false
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

var _ ProductLookup = (catalog.Service)(nil)
