package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

// purgeOrder deletes children before parents so no FK is violated.
var purgeOrder = []string{
	"order_items",
	"orders",
	"stock_ledger",
	"items",
	"companies",
	"transport_companies",
	"reference_ids",
	"audit_logs",
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) PurgeBusinessData(ctx context.Context) (map[string]int64, error) {
	removed := make(map[string]int64, len(purgeOrder))
	err := postgres.RunInTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		for _, table := range purgeOrder {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return fmt.Errorf("purging %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			removed[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
