package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
)

// Service owns products and their slugs.
type Service interface {
	// GetByID returns nil, nil for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	// GetBySlug returns nil, nil when nothing matches.
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Resolve(ctx context.Context, ref string) (*Resolution, error)
	GetActiveProducts(ctx context.Context) ([]Product, error)
	GetFeaturedProducts(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
}

// CreateInput holds the payload to create a product. Slug is optional.
type CreateInput struct {
	Name            string
	Slug            string
	LegacyID        *string
	Description     string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Images          []string
	Colors          []string
	Sizes           []string
	SKU             *string
	IsActive        bool
	IsFeatured      bool
}

// UpdateInput holds optional mutation values; nil fields are left alone.
type UpdateInput struct {
	Name            *string
	Slug            *string
	Description     *string
	Price           *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	ClearDiscount   bool
	Images          *[]string
	Colors          *[]string
	Sizes           *[]string
	SKU             *string
	IsActive        *bool
	IsFeatured      *bool
}

// Resolution is the outcome of a public product lookup.
type Resolution struct {
	Product Product `json:"product"`
	// Redirect is set when the reference was not the canonical slug, so the
	// caller can send the visitor to the canonical URL.
	Redirect bool `json:"redirect"`
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
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: params.Now}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, nil
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product, err := decodeProduct(*row)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDs loads many products at once. Missing ids are simply absent from the map.
func (s *service) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]Product, len(rows))
	for _, row := range rows {
		product, err := decodeProduct(row)
		if err != nil {
			return nil, err
		}
		out[product.ID] = product
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, requested string) (*Product, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil, nil
	}

	row, err := s.repo.FindBySlug(ctx, requested)
	switch {
	case err == nil:
		product, err := decodeProduct(*row)
		if err != nil {
			return nil, err
		}
		return &product, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by slug")
	}

	// Fallback for rows written before slugs were stored.
	rows, err := s.repo.ListActiveOldestFirst(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan active products")
	}
	for _, candidate := range rows {
		product, err := decodeProduct(candidate)
		if err != nil || product.Slug != requested {
			continue
		}
		if !product.slugStored {
			s.selfHealSlug(ctx, &product)
		}
		return &product, nil
	}
	return nil, nil
}

func (s *service) selfHealSlug(ctx context.Context, product *Product) {
	ctx = s.logg.WithFields(s.logg.WithProductID(ctx, product.ID.String()), map[string]any{"slug": product.Slug})

	written, err := s.repo.SetSlugIfEmpty(ctx, product.ID, product.Slug)
	switch {
	case err != nil && db.IsUniqueViolation(err):
		s.logg.Warn(ctx, "slug self-heal skipped: slug owned by another product")
	case err != nil:
		s.logg.Error(ctx, "slug self-heal failed", err)
	case written:
		product.slugStored = true
		s.logg.Info(ctx, "slug self-healed")
	default:
		// another request healed it first
		product.slugStored = true
	}
}

func (s *service) Resolve(ctx context.Context, ref string) (*Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	if _, err := uuid.Parse(ref); err == nil {
		product, err := s.GetByID(ctx, ref)
		if err != nil || product == nil {
			return nil, err
		}
		return &Resolution{Product: *product, Redirect: true}, nil
	}

	if slug.LooksLikeLegacyID(ref) {
		row, err := s.repo.FindByLegacyID(ctx, ref)
		switch {
		case err == nil:
			product, err := decodeProduct(*row)
			if err != nil {
				return nil, err
			}
			return &Resolution{Product: product, Redirect: true}, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by legacy id")
		}
		// twenty alphanumerics can also be a plain slug
	}

	product, err := s.GetBySlug(ctx, ref)
	if err != nil || product == nil {
		return nil, err
	}
	return &Resolution{Product: *product, Redirect: product.Slug != ref}, nil
}

func (s *service) GetActiveProducts(ctx context.Context) ([]Product, error) {
	return s.listActive(ctx, false)
}

func (s *service) GetFeaturedProducts(ctx context.Context) ([]Product, error) {
	return s.listActive(ctx, true)
}

func (s *service) listActive(ctx context.Context, featuredOnly bool) ([]Product, error) {
	rows, err := s.repo.ListActive(ctx, featuredOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active products")
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		product, err := decodeProduct(row)
		if err != nil {
			// one broken row must not take the storefront down
			s.logg.Error(s.logg.WithProductID(ctx, row.ID.String()), "skipping undecodable product", err)
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateProductFields(name, input.Price, input.DiscountedPrice, input.Sizes); err != nil {
		return nil, err
	}

	productSlug, err := s.chooseSlug(ctx, uuid.Nil, name, input.Slug)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := models.Product{
		ID:          uuid.New(),
		Name:        name,
		Slug:        productSlug,
		LegacyID:    trimmedPtr(input.LegacyID),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Images:      cleanList(input.Images),
		Colors:      cleanList(input.Colors),
		Sizes:       cleanList(input.Sizes),
		SKU:         trimmedPtr(input.SKU),
		IsActive:    input.IsActive,
		IsFeatured:  input.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.DiscountedPrice != nil {
		row.DiscountedPrice = decimal.NewNullDecimal(*input.DiscountedPrice)
	}

	if err := s.repo.Insert(ctx, &row); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug or legacy id already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	product, err := decodeProduct(row)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithProductID(ctx, row.ID.String()), "product created")
	return &product, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	nameChanged := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		nameChanged = name != row.Name
		row.Name = name
	}
	if input.Description != nil {
		row.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		row.Price = *input.Price
	}
	switch {
	case input.ClearDiscount:
		row.DiscountedPrice = decimal.NullDecimal{}
	case input.DiscountedPrice != nil:
		row.DiscountedPrice = decimal.NewNullDecimal(*input.DiscountedPrice)
	}
	if input.Images != nil {
		row.Images = cleanList(*input.Images)
	}
	if input.Colors != nil {
		row.Colors = cleanList(*input.Colors)
	}
	if input.Sizes != nil {
		row.Sizes = cleanList(*input.Sizes)
	}
	if input.SKU != nil {
		row.SKU = trimmedPtr(input.SKU)
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		row.IsFeatured = *input.IsFeatured
	}

	var discount *decimal.Decimal
	if row.DiscountedPrice.Valid {
		discount = &row.DiscountedPrice.Decimal
	}
	if err := validateProductFields(row.Name, row.Price, discount, row.Sizes); err != nil {
		return nil, err
	}

	switch {
	case input.Slug != nil:
		if row.Slug, err = s.chooseSlug(ctx, row.ID, row.Name, *input.Slug); err != nil {
			return nil, err
		}
	case nameChanged:
		if row.Slug, err = s.chooseSlug(ctx, row.ID, row.Name, ""); err != nil {
			return nil, err
		}
	}

	row.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		case db.IsUniqueViolation(err):
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	product, err := decodeProduct(*row)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithProductID(ctx, row.ID.String()), "product updated")
	return &product, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	deleted, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.logg.Info(s.logg.WithProductID(ctx, productID.String()), "product deleted")
	return nil
}

// chooseSlug validates an explicit slug or derives one from name. Explicit
// slugs must be free; derived ones get a numeric suffix when taken.
func (s *service) chooseSlug(ctx context.Context, self uuid.UUID, name, explicit string) (string, error) {
	taken := func(candidate string) (bool, error) {
		return s.repo.SlugTaken(ctx, candidate, self)
	}

	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if !slug.Valid(explicit) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "slug may only contain lowercase letters, digits, underscores and single hyphens").
				WithDetails(map[string]any{"field": "slug", "suggestion": slug.Derive(explicit)})
		}
		used, err := taken(explicit)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if used {
			return "", pkgerrors.Newf(pkgerrors.CodeConflict, "slug %q already in use", explicit).
				WithDetails(map[string]any{"field": "slug"})
		}
		return explicit, nil
	}

	base := slug.Derive(name)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits").
			WithDetails(map[string]any{"field": "name"})
	}
	unique, err := slug.Unique(base, taken)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	return unique, nil
}

func validateProductFields(name string, price decimal.Decimal, discounted *decimal.Decimal, sizes []string) error {
	if name == "" {
		return fieldError("name", "name is required")
	}
	if price.IsNegative() {
		return fieldError("price", "price must be >= 0")
	}
	if discounted != nil {
		if discounted.IsNegative() {
			return fieldError("discounted_price", "discounted price must be >= 0")
		}
		if discounted.GreaterThan(price) {
			return fieldError("discounted_price", "discounted price cannot exceed price")
		}
	}
	seen := map[string]struct{}{}
	for _, size := range cleanList(sizes) {
		key := strings.ToLower(size)
		if _, dup := seen[key]; dup {
			return fieldError("sizes", fmt.Sprintf("size %q listed twice", size))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
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
