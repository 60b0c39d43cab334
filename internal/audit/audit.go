package audit

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

// Entry is what callers hand to a Recorder. Payload is marshalled to JSON.
type Entry struct {
	EventType   model.AuditEvent `json:"event_type"`
	Entity      string           `json:"entity"`
	EntityID    string           `json:"entity_id"`
	PerformedBy string           `json:"performed_by"`
	Payload     interface{}      `json:"payload"`
}

// Recorder appends audit entries best-effort: failures are logged by the
// implementation and never reach the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Repository interface {
	Insert(ctx context.Context, log *model.AuditLog) error
	FindAll(ctx context.Context, filters *dto.AuditFilters) ([]model.AuditLog, int, error)
}

type UseCase interface {
	ListAuditLogs(ctx context.Context, filters *dto.AuditFilters) ([]model.AuditLog, int, error)
}
