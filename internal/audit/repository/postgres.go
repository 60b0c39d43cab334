package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, l *model.AuditLog) error {
	query := `
        INSERT INTO audit_logs (id, event_type, entity, entity_id, performed_by, payload, created_at)
        VALUES (:id, :event_type, :entity, :entity_id, :performed_by, :payload, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, l)
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.AuditFilters) ([]model.AuditLog, int, error) {
	var logs []model.AuditLog
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Entity != "" {
		conditions = append(conditions, "entity = :entity")
		args["entity"] = f.Entity
	}
	if f.EntityID != "" {
		conditions = append(conditions, "entity_id = :entity_id")
		args["entity_id"] = f.EntityID
	}
	if f.EventType != "" {
		conditions = append(conditions, "event_type = :event_type")
		args["event_type"] = f.EventType
	}
	if f.PerformedBy != "" {
		conditions = append(conditions, "performed_by = :performed_by")
		args["performed_by"] = f.PerformedBy
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM audit_logs"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM audit_logs" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &logs, args)
	return logs, count, err
}
