package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Entry describes one mutation to record.
type Entry struct {
	Action     enums.AuditAction
	EntityType enums.AuditEntityType
	EntityID   string
	ActorID    string
	Details    map[string]any
}

// Log is a stored audit entry.
type Log struct {
	ID         uuid.UUID             `json:"id"`
	Action     enums.AuditAction     `json:"action"`
	EntityType enums.AuditEntityType `json:"entity_type"`
	EntityID   string                `json:"entity_id"`
	ActorID    *string               `json:"actor_id,omitempty"`
	Details    map[string]any        `json:"details,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Appender is the write side other services depend on.
type Appender interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) (*Log, error)
}

type Trail struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewTrail(repo *Repository, logg *logger.Logger, now func() time.Time) (*Trail, error) {
	if repo == nil {
		return nil, errors.New("audit repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &Trail{repo: repo, logg: logg, now: now}, nil
}

// Append records entry. Passing tx makes the entry commit or roll back with
// the caller's mutation.
func (t *Trail) Append(ctx context.Context, tx *gorm.DB, entry Entry) (*Log, error) {
	if strings.TrimSpace(string(entry.Action)) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit action is required")
	}
	if !entry.EntityType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown audit entity type %q", entry.EntityType)
	}
	if strings.TrimSpace(entry.EntityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "audit entity id is required")
	}

	row := models.AuditLog{
		ID:         uuid.New(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    types.JSONObject(entry.Details),
		CreatedAt:  t.now().UTC(),
	}
	if actor := strings.TrimSpace(entry.ActorID); actor != "" {
		row.ActorID = &actor
	}

	if err := t.repo.Insert(ctx, tx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}

	logCtx := t.logg.WithFields(ctx, map[string]any{
		"audit_id":    row.ID.String(),
		"action":      row.Action,
		"entity_type": row.EntityType,
		"entity_id":   row.EntityID,
	})
	t.logg.Info(logCtx, "audit entry appended")

	out := toLog(row)
	return &out, nil
}

// ListByEntity returns the entries for one entity, oldest first.
func (t *Trail) ListByEntity(ctx context.Context, entityType enums.AuditEntityType, entityID string) ([]Log, error) {
	if !entityType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown audit entity type %q", entityType)
	}
	rows, err := t.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	out := make([]Log, 0, len(rows))
	for _, row := range rows {
		out = append(out, toLog(row))
	}
	return out, nil
}

func toLog(row models.AuditLog) Log {
	return Log{
		ID:         row.ID,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		ActorID:    row.ActorID,
		Details:    map[string]any(row.Details),
		CreatedAt:  row.CreatedAt,
	}
}
