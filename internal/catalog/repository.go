package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindByLegacyID(ctx context.Context, legacyID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "legacy_id = ?", legacyID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugTaken reports whether another product already stores slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ? AND id <> ?", slug, exclude).
		Count(&count).Error
	return count > 0, err
}

// ListActive returns active products newest first; featuredOnly narrows to featured ones.
func (r *Repository) ListActive(ctx context.Context, featuredOnly bool) ([]models.Product, error) {
	var rows []models.Product
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if featuredOnly {
		q = q.Where("is_featured = ?", true)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// ListActiveOldestFirst feeds the slug fallback scan, where the oldest match wins.
func (r *Repository) ListActiveOldestFirst(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Insert(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update rewrites every mutable column of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(product).
		Select("*").
		Omit("id", "created_at").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetSlugIfEmpty writes slug only when the stored slug is still empty, so
// concurrent self-heals of the same row converge on one value.
func (r *Repository) SetSlugIfEmpty(ctx context.Context, id uuid.UUID, slug string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND slug = ''", id).
		Update("slug", slug)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
