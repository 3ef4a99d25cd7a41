package audit

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository appends and reads audit_logs rows. There is no update or delete.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes row through tx when given, otherwise through the repository connection.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, row *models.AuditLog) error {
	if row == nil {
		return errors.New("audit row required")
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(row).Error
}

func (r *Repository) ListByEntity(ctx context.Context, entityType enums.AuditEntityType, entityID string) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
