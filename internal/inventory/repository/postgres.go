package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ApplyStockChange(ctx context.Context, entry *model.StockLedgerEntry) (*model.Item, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. Move the counter; the guard keeps physical stock non-negative
	var it model.Item
	err = tx.GetContext(ctx, &it, `
        UPDATE items
        SET physical_stock = physical_stock + $2,
            updated_at = $3
        WHERE id = $1 AND physical_stock + $2 >= 0
        RETURNING *
    `, entry.ItemID, entry.Quantity, entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.explainMiss(ctx, tx, entry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	entry.BalanceAfter = it.PhysicalStock

	// 2. Ledger row
	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO stock_ledger (
            id, item_id, transaction_type, quantity, balance_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :item_id, :transaction_type, :quantity, :balance_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to write ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepository) explainMiss(ctx context.Context, tx *sqlx.Tx, entry *model.StockLedgerEntry) error {
	var physical int
	err := tx.GetContext(ctx, &physical, `SELECT physical_stock FROM items WHERE id = $1`, entry.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("item.not_found", "id=%s", entry.ItemID)
	}
	if err != nil {
		return err
	}
	return apperror.Validation("inventory.insufficient_stock", "physical=%d change=%d", physical, entry.Quantity)
}

func (r *PGRepository) SetPhysicalStock(ctx context.Context, itemID string, physical int) (*model.Item, error) {
	var it model.Item
	err := r.DB.GetContext(ctx, &it, `
        UPDATE items
        SET physical_stock = $2, updated_at = now()
        WHERE id = $1
        RETURNING *
    `, itemID, physical)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("item.not_found", "id=%s", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepository) ListLedger(ctx context.Context, f *dto.LedgerFilters) ([]model.StockLedgerEntry, int, error) {
	var entries []model.StockLedgerEntry
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.TransactionType != "" {
		conditions = append(conditions, "transaction_type = :transaction_type")
		args["transaction_type"] = f.TransactionType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM stock_ledger"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := "SELECT * FROM stock_ledger" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &entries, args)
	return entries, count, err
}

func (r *PGRepository) ListLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.Item, int, error) {
	const where = ` WHERE (physical_stock - reserved_stock) <= reorder_point`

	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM items`+where); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM items` + where + ` ORDER BY (physical_stock - reserved_stock) - reorder_point ASC, name`
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	var items []model.Item
	err := r.DB.SelectContext(ctx, &items, query)
	return items, count, err
}
