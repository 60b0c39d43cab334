package model

import (
	"encoding/json"
	"time"
)

type AuditEvent string

const (
	AuditCreate AuditEvent = "CREATE"
	AuditUpdate AuditEvent = "UPDATE"
	AuditDelete AuditEvent = "DELETE"
)

type AuditLog struct {
	ID          string          `db:"id" json:"id"`
	EventType   AuditEvent      `db:"event_type" json:"event_type"`
	Entity      string          `db:"entity" json:"entity"`
	EntityID    string          `db:"entity_id" json:"entity_id"`
	PerformedBy *string         `db:"performed_by" json:"performed_by"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
