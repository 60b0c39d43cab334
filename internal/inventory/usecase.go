package inventory

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

type UseCase interface {
	AddStock(ctx context.Context, input *dto.StockChangeInput) (*model.StockLedgerEntry, error)
	AdjustStock(ctx context.Context, input *dto.StockChangeInput) (*model.StockLedgerEntry, error)
	SetStock(ctx context.Context, input *dto.SetStockInput) (*model.Item, error)
	ListLedger(ctx context.Context, filters *dto.LedgerFilters) ([]model.StockLedgerEntry, int, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Item, int, error)
}
