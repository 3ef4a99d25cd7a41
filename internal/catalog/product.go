package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
)

// Product is a decoded catalog entry.
type Product struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	LegacyID        *string          `json:"legacy_id,omitempty"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Images          []string         `json:"images"`
	Colors          []string         `json:"colors"`
	Sizes           []string         `json:"sizes"`
	SKU             *string          `json:"sku,omitempty"`
	IsActive        bool             `json:"is_active"`
	IsFeatured      bool             `json:"is_featured"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// slugStored is false when Slug was derived on read and not yet written back.
	slugStored bool
}

// SlugStored reports whether the slug comes from storage rather than the name.
func (p Product) SlugStored() bool {
	return p.slugStored
}

// EffectivePrice is the discounted price when one is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// decodeProduct validates a stored row. Rows that cannot be shown to a
// customer are reported as integrity errors naming the bad field.
func decodeProduct(row models.Product) (Product, error) {
	if row.ID == uuid.Nil {
		return Product{}, integrity(row.ID, "id", "missing")
	}
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return Product{}, integrity(row.ID, "name", "missing")
	}
	if row.Price.IsNegative() {
		return Product{}, integrity(row.ID, "price", "negative")
	}

	p := Product{
		ID:          row.ID,
		Name:        name,
		Slug:        strings.TrimSpace(row.Slug),
		LegacyID:    row.LegacyID,
		Description: row.Description,
		Price:       row.Price,
		Images:      cleanList(row.Images),
		Colors:      cleanList(row.Colors),
		Sizes:       cleanList(row.Sizes),
		SKU:         row.SKU,
		IsActive:    row.IsActive,
		IsFeatured:  row.IsFeatured,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		slugStored:  true,
	}
	if p.Slug == "" {
		p.Slug = slug.Derive(name)
		p.slugStored = false
	}
	if row.DiscountedPrice.Valid {
		discounted := row.DiscountedPrice.Decimal
		if discounted.IsNegative() {
			return Product{}, integrity(row.ID, "discounted_price", "negative")
		}
		// a discount above the list price is not a discount
		if discounted.LessThanOrEqual(row.Price) {
			p.DiscountedPrice = &discounted
		}
	}
	return p, nil
}

func integrity(id uuid.UUID, field, problem string) error {
	return pkgerrors.Newf(pkgerrors.CodeIntegrity, "product %s: %s %s", id, field, problem).
		WithDetails(map[string]any{"product_id": id.String(), "field": field})
}

// cleanList trims entries and drops blanks. Nil becomes an empty list.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
