package dto

import "time"

type AuditFilters struct {
	Entity      string
	EntityID    string
	EventType   string
	PerformedBy string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
}
