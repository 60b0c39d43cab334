package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, i *model.Item) error {
	query := `
        INSERT INTO items (
            id, sku, name, unit, description,
            physical_stock, reserved_stock, reorder_point, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :unit, :description,
            :physical_stock, :reserved_stock, :reorder_point, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, i)
	if postgres.IsUniqueViolation(err) {
		return apperror.Conflict("item.sku_exists", "sku=%s", i.SKU).WithData(map[string]interface{}{"SKU": i.SKU})
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM items WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindBySKU(ctx context.Context, sku string) (*model.Item, error) {
	var item model.Item
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM items WHERE sku = $1 LIMIT 1`, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	var items []model.Item
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	if f.LowStock {
		conditions = append(conditions, "(physical_stock - reserved_stock) <= reorder_point")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM items"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelisted to keep user input out of the query text
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "sku":
			orderBy = "sku"
		case "available":
			orderBy = "(physical_stock - reserved_stock)"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM items%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

// Update writes descriptive fields only. Stock columns are owned by the
// inventory and order paths.
func (r *PGRepository) Update(ctx context.Context, i *model.Item) error {
	query := `
        UPDATE items
        SET sku = :sku,
            name = :name,
            unit = :unit,
            description = :description,
            reorder_point = :reorder_point,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, i)
	if postgres.IsUniqueViolation(err) {
		return apperror.Conflict("item.sku_exists", "sku=%s", i.SKU).WithData(map[string]interface{}{"SKU": i.SKU})
	}
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if postgres.IsForeignKeyViolation(err) {
		return apperror.Referenced("item.referenced", err)
	}
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM items WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}
