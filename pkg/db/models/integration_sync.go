package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// IntegrationSync logs one sync attempt against an external collaborator.
// Failed rows are retried out of band by the sync worker; RetryCount grows
// monotonically until the row succeeds or exhausts its attempts.
type IntegrationSync struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Target     enums.SyncTarget `gorm:"column:target;type:sync_target;not null"`
	Operation  string           `gorm:"column:operation;not null"`
	EntityType string           `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID        `gorm:"column:entity_id;type:uuid;not null;index"`
	Status     enums.SyncStatus `gorm:"column:status;type:sync_status;not null;default:'pending'"`
	RetryCount int              `gorm:"column:retry_count;not null;default:0"`
	LastError  *string          `gorm:"column:last_error"`
	Payload    json.RawMessage  `gorm:"column:payload;type:jsonb"`
	SyncedAt   *time.Time       `gorm:"column:synced_at"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
