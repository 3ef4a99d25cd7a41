package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// AuditLog is an append-only record of a back office mutation.
type AuditLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Action     enums.AuditAction     `gorm:"column:action;not null"`
	EntityType enums.AuditEntityType `gorm:"column:entity_type;not null"`
	EntityID   string                `gorm:"column:entity_id;not null"`
	ActorID    *string               `gorm:"column:actor_id"`
	Details    types.JSONObject      `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime:false"`
}
