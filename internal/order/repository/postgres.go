package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/internal/refcode"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB   *sqlx.DB
	q    sqlx.ExtContext
	inTx bool
	now  func() time.Time
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db, q: db, now: time.Now}
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(repo order.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return postgres.RunInTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&PGRepository{DB: r.DB, q: tx, inTx: true, now: r.now})
	})
}

func (r *PGRepository) NextReferenceCode(ctx context.Context, prefix string) (string, error) {
	return refcode.Next(ctx, r.q, prefix, r.now())
}

func (r *PGRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	query := `
        INSERT INTO orders (
            id, reference_code, company_id, transport_company_id, status,
            created_by, notes, created_at, updated_at
        )
        VALUES (
            :id, :reference_code, :company_id, :transport_company_id, :status,
            :created_by, :notes, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, o)
	return err
}

func (r *PGRepository) CreateOrderItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
        INSERT INTO order_items (order_id, item_id, quantity, delivered_quantity, price, due_date)
        VALUES (:order_id, :item_id, :quantity, :delivered_quantity, :price, :due_date)
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, items)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := sqlx.GetContext(ctx, r.q, &o, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.CompanyID != "" {
		conditions = append(conditions, "company_id = :company_id")
		args["company_id"] = f.CompanyID
	}
	if f.CreatedBy != "" {
		conditions = append(conditions, "created_by = :created_by")
		args["created_by"] = f.CreatedBy
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(reference_code ILIKE :search OR notes ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM orders"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &orders, args); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *PGRepository) ListOrderItems(ctx context.Context, orderIDs ...string) ([]model.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []model.OrderItem{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM order_items WHERE order_id IN (?) ORDER BY order_id, item_id`, orderIDs)
	if err != nil {
		return nil, err
	}

	var items []model.OrderItem
	err = sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) UpdateOrder(ctx context.Context, o *model.Order) error {
	query := `
        UPDATE orders
        SET company_id = :company_id,
            transport_company_id = :transport_company_id,
            status = :status,
            notes = :notes,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, o)
	return err
}

func (r *PGRepository) ReplaceOrderItems(ctx context.Context, orderID string, items []model.OrderItem) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	return r.CreateOrderItems(ctx, items)
}

func (r *PGRepository) DeleteOrder(ctx context.Context, id string) error {
	// order_items go with the order (ON DELETE CASCADE)
	_, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

func (r *PGRepository) AdjustReservedStock(ctx context.Context, itemID string, delta int) error {
	res, err := r.q.ExecContext(ctx, `
        UPDATE items
        SET reserved_stock = GREATEST(reserved_stock + $2, 0),
            updated_at = $3
        WHERE id = $1
    `, itemID, delta, r.now())
	if err != nil {
		return fmt.Errorf("adjust reserved stock of %s: %w", itemID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("item.not_found", "id=%s", itemID)
	}
	return nil
}

// UpdateDeliveredQuantities runs update_delivery_quantities, which sets every
// line and moves reserved_stock in one statement.
func (r *PGRepository) UpdateDeliveredQuantities(ctx context.Context, orderID string, lines []dto.DeliveryLine) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `SELECT update_delivery_quantities($1, $2::jsonb)`, orderID, string(payload))
	if postgres.IsUndefinedFunction(err) {
		return order.ErrBatchUnsupported
	}
	return err
}

func (r *PGRepository) UpdateDeliveredQuantity(ctx context.Context, orderID, itemID string, delivered int) error {
	res, err := r.q.ExecContext(ctx, `
        UPDATE order_items
        SET delivered_quantity = $3
        WHERE order_id = $1 AND item_id = $2
    `, orderID, itemID, delivered)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("order.unknown_item", "order=%s item=%s", orderID, itemID)
	}
	return nil
}

func (r *PGRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var items []model.Item
	err = sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) CompanyExists(ctx context.Context, kind model.CompanyKind, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, kind.Table())
	err := sqlx.GetContext(ctx, r.q, &exists, query, id)
	return exists, err
}
