package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
)

func TestCreateDerivesSlugAndResolvesBySlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseInput("Phantom Thread V2"))
	require.NoError(t, err)
	assert.Equal(t, "phantom-thread-v2", created.Slug)
	assert.True(t, created.SlugStored())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := svc.GetBySlug(ctx, slug.Derive("Phantom Thread V2"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, []string{"S", "M", "L"}, found.Sizes)
	assert.True(t, decimal.RequireFromString("39.99").Equal(found.Price))
}

func TestGetBySlugFallbackSelfHealsLegacyRows(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()

	legacy := insertLegacyProduct(t, conn, "Night Shift Hoodie", epoch)

	found, err := svc.GetBySlug(ctx, "night-shift-hoodie")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, legacy.ID, found.ID)
	assert.True(t, found.SlugStored())

	stored, err := repo.FindByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "night-shift-hoodie", stored.Slug)

	// the next lookup takes the fast path and returns the same product
	again, err := svc.GetBySlug(ctx, "night-shift-hoodie")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, legacy.ID, again.ID)
}

func TestGetBySlugFallbackFirstMatchWinsAndSkipsInactive(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()

	insertLegacyProduct(t, conn, "Twin Tee", epoch.Add(-2*time.Hour), func(p *models.Product) { p.IsActive = false })
	older := insertLegacyProduct(t, conn, "Twin Tee", epoch.Add(-time.Hour))
	newer := insertLegacyProduct(t, conn, "Twin  Tee!", epoch)

	found, err := svc.GetBySlug(ctx, "twin-tee")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, older.ID, found.ID)

	untouched, err := repo.FindByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched.Slug)
}

func TestGetBySlugMissReturnsAbsent(t *testing.T) {
	svc, _, _ := newTestService(t)
	found, err := svc.GetBySlug(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = svc.GetBySlug(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateEnforcesSlugUniqueness(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, baseInput("Core Tee"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, baseInput("Core  Tee"))
	require.NoError(t, err)
	third, err := svc.Create(ctx, baseInput("core tee"))
	require.NoError(t, err)

	assert.Equal(t, "core-tee", first.Slug)
	assert.Equal(t, "core-tee-2", second.Slug)
	assert.Equal(t, "core-tee-3", third.Slug)

	explicit := baseInput("Another Tee")
	explicit.Slug = "core-tee"
	_, err = svc.Create(ctx, explicit)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	explicit.Slug = "Not A Slug"
	_, err = svc.Create(ctx, explicit)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	negative := baseInput("Bad Price")
	negative.Price = decimal.NewFromInt(-1)

	overDiscount := baseInput("Bad Discount")
	over := decimal.RequireFromString("99.00")
	overDiscount.DiscountedPrice = &over

	dupSizes := baseInput("Dup Sizes")
	dupSizes.Sizes = []string{"M", "m"}

	symbols := baseInput("!!!")

	for name, input := range map[string]CreateInput{
		"negative price": negative,
		"over discount":  overDiscount,
		"duplicate size": dupSizes,
		"empty slug":     symbols,
		"missing name":   baseInput("  "),
	} {
		_, err := svc.Create(ctx, input)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%s: %v", name, err)
	}
}

func TestUpdateRecomputesSlugOnlyOnNameChange(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseInput("Field Jacket"))
	require.NoError(t, err)

	price := decimal.RequireFromString("120.00")
	updated, err := svc.Update(ctx, created.ID.String(), UpdateInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "field-jacket", updated.Slug)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	name := "Field Jacket Mk II"
	updated, err = svc.Update(ctx, created.ID.String(), UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "field-jacket-mk-ii", updated.Slug)

	name = "Field Jacket Mk III"
	explicit := "fj-3"
	updated, err = svc.Update(ctx, created.ID.String(), UpdateInput{Name: &name, Slug: &explicit})
	require.NoError(t, err)
	assert.Equal(t, "fj-3", updated.Slug)
	assert.Equal(t, "Field Jacket Mk III", updated.Name)

	byOldSlug, err := svc.GetBySlug(ctx, "field-jacket")
	require.NoError(t, err)
	assert.Nil(t, byOldSlug)
}

func TestUpdateDiscountAndFlags(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseInput("Cargo Pant"))
	require.NoError(t, err)

	discount := decimal.RequireFromString("29.99")
	inactive := false
	updated, err := svc.Update(ctx, created.ID.String(), UpdateInput{DiscountedPrice: &discount, IsActive: &inactive})
	require.NoError(t, err)
	require.NotNil(t, updated.DiscountedPrice)
	assert.True(t, discount.Equal(updated.EffectivePrice()))
	assert.False(t, updated.IsActive)

	updated, err = svc.Update(ctx, created.ID.String(), UpdateInput{ClearDiscount: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DiscountedPrice)
	assert.True(t, updated.Price.Equal(updated.EffectivePrice()))
}

func TestUpdateAndDeleteUnknownOrMalformedIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	name := "Ghost"

	_, err := svc.Update(ctx, uuid.NewString(), UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = svc.Update(ctx, "nope", UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	err = svc.Delete(ctx, uuid.NewString())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestGetByIDAbsentCases(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		found, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, found, id)
	}
}

func TestActiveAndFeaturedListings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, baseInput("First Drop"))
	require.NoError(t, err)
	featured := baseInput("Second Drop")
	featured.IsFeatured = true
	second, err := svc.Create(ctx, featured)
	require.NoError(t, err)
	hidden := baseInput("Hidden Drop")
	hidden.IsActive = false
	hidden.IsFeatured = true
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	active, err := svc.GetActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)

	featuredList, err := svc.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featuredList, 1)
	assert.Equal(t, second.ID, featuredList[0].ID)
}

func TestDeleteRemovesProductFromReads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseInput("Short Lived"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID.String()))

	found, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Nil(t, found)

	active, err := svc.GetActiveProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestResolve(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseInput("Resolve Me"))
	require.NoError(t, err)
	legacyID := "aB3dE5gH7jK9mN1pQ3sT"
	legacy := insertLegacyProduct(t, conn, "Old Link Tee", epoch, func(p *models.Product) { p.LegacyID = &legacyID })

	bySlug, err := svc.Resolve(ctx, "resolve-me")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, created.ID, bySlug.Product.ID)
	assert.False(t, bySlug.Redirect)

	byID, err := svc.Resolve(ctx, created.ID.String())
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.True(t, byID.Redirect)

	byLegacy, err := svc.Resolve(ctx, legacyID)
	require.NoError(t, err)
	require.NotNil(t, byLegacy)
	assert.Equal(t, legacy.ID, byLegacy.Product.ID)
	assert.Equal(t, "old-link-tee", byLegacy.Product.Slug)
	assert.True(t, byLegacy.Redirect)

	missing, err := svc.Resolve(ctx, "zzzzzzzzzzzzzzzzzzzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUndecodableRowsAreIntegrityErrors(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()

	good := insertLegacyProduct(t, conn, "Good Row", epoch)
	bad := insertLegacyProduct(t, conn, "  ", epoch.Add(time.Hour))

	_, err := svc.GetByID(ctx, bad.ID.String())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIntegrity))

	active, err := svc.GetActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, good.ID, active[0].ID)
}
