package dto

import "github.com/fekuna/omnipos-erp-service/internal/model"

type UserFilters struct {
	Role     string
	Status   string
	Search   string
	Page     int
	PageSize int
}

// Activity is what a user did: audit entries they performed and the orders
// they created.
type Activity struct {
	User      *model.UserProfile `json:"user"`
	AuditLogs []model.AuditLog   `json:"audit_logs"`
	Orders    []model.Order      `json:"orders"`
}
