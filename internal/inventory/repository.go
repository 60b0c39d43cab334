package inventory

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

type Repository interface {
	// ApplyStockChange adds entry.Quantity to the item's physical stock and
	// appends entry to the ledger in one transaction. It fills
	// entry.BalanceAfter and returns the updated item.
	ApplyStockChange(ctx context.Context, entry *model.StockLedgerEntry) (*model.Item, error)

	// SetPhysicalStock overwrites physical stock without a ledger entry.
	SetPhysicalStock(ctx context.Context, itemID string, physical int) (*model.Item, error)

	ListLedger(ctx context.Context, filters *dto.LedgerFilters) ([]model.StockLedgerEntry, int, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Item, int, error)
}
