package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit/audittest"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/lock"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	items  map[string]model.Item
	ledger []model.StockLedgerEntry
}

func (r *fakeRepo) ApplyStockChange(_ context.Context, e *model.StockLedgerEntry) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[e.ItemID]
	if !ok {
		return nil, apperror.NotFound("item.not_found", "id=%s", e.ItemID)
	}
	if it.PhysicalStock+e.Quantity < 0 {
		return nil, apperror.Validation("inventory.insufficient_stock", "")
	}
	it.PhysicalStock += e.Quantity
	r.items[e.ItemID] = it
	e.BalanceAfter = it.PhysicalStock
	r.ledger = append(r.ledger, *e)
	return &it, nil
}

func (r *fakeRepo) SetPhysicalStock(_ context.Context, id string, physical int) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, apperror.NotFound("item.not_found", "id=%s", id)
	}
	it.PhysicalStock = physical
	r.items[id] = it
	return &it, nil
}

func (r *fakeRepo) ListLedger(context.Context, *dto.LedgerFilters) ([]model.StockLedgerEntry, int, error) {
	return r.ledger, len(r.ledger), nil
}

func (r *fakeRepo) ListLowStock(context.Context, *dto.LowStockFilters) ([]model.Item, int, error) {
	return nil, 0, nil
}

func setup(t *testing.T) (*inventoryUseCase, *fakeRepo, *audittest.Recorder) {
	t.Helper()
	repo := &fakeRepo{items: map[string]model.Item{
		"item-1": {BaseModel: model.BaseModel{ID: "item-1"}, SKU: "BOLT", PhysicalStock: 5, ReservedStock: 2},
	}}
	rec := &audittest.Recorder{}
	log := logger.NewNop()
	uc := NewInventoryUseCase(repo, lock.NewLocalLocker(), cache.New(time.Minute, log), rec, log).(*inventoryUseCase)
	return uc, repo, rec
}

func TestAddStockWritesLedger(t *testing.T) {
	uc, repo, rec := setup(t)

	entry, err := uc.AddStock(context.Background(), &dto.StockChangeInput{
		ItemID:        "item-1",
		Quantity:      10,
		ReferenceType: "purchase",
		UserID:        "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.LedgerStockIn, entry.TransactionType)
	assert.Equal(t, 15, entry.BalanceAfter)
	require.NotNil(t, entry.ReferenceType)
	assert.Equal(t, "purchase", *entry.ReferenceType)
	assert.Nil(t, entry.ReferenceID)

	assert.Equal(t, 15, repo.items["item-1"].PhysicalStock)
	assert.Equal(t, 2, repo.items["item-1"].ReservedStock, "reservation is untouched by receipts")
	require.Len(t, rec.Entries(), 1)
	assert.Equal(t, "inventory", rec.Entries()[0].Entity)
}

func TestAddStockRejectsNonPositive(t *testing.T) {
	uc, repo, _ := setup(t)

	for _, q := range []int{0, -3} {
		_, err := uc.AddStock(context.Background(), &dto.StockChangeInput{ItemID: "item-1", Quantity: q})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "quantity %d", q)
	}
	assert.Empty(t, repo.ledger)
}

func TestAdjustStockSigned(t *testing.T) {
	uc, repo, _ := setup(t)

	entry, err := uc.AdjustStock(context.Background(), &dto.StockChangeInput{ItemID: "item-1", Quantity: -4, Notes: "stock opname"})
	require.NoError(t, err)
	assert.Equal(t, model.LedgerAdjustment, entry.TransactionType)
	assert.Equal(t, 1, entry.BalanceAfter)

	_, err = uc.AdjustStock(context.Background(), &dto.StockChangeInput{ItemID: "item-1", Quantity: -2})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 1, repo.items["item-1"].PhysicalStock)
	assert.Len(t, repo.ledger, 1)

	_, err = uc.AdjustStock(context.Background(), &dto.StockChangeInput{ItemID: "item-1", Quantity: 0})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestStockChangeUnknownItem(t *testing.T) {
	uc, _, _ := setup(t)

	_, err := uc.AddStock(context.Background(), &dto.StockChangeInput{ItemID: "ghost", Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = uc.AddStock(context.Background(), &dto.StockChangeInput{Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestSetStockBypassesLedger(t *testing.T) {
	uc, repo, rec := setup(t)

	it, err := uc.SetStock(context.Background(), &dto.SetStockInput{ItemID: "item-1", PhysicalStock: 42})
	require.NoError(t, err)
	assert.Equal(t, 42, it.PhysicalStock)
	assert.Empty(t, repo.ledger)
	assert.Len(t, rec.Entries(), 1)

	_, err = uc.SetStock(context.Background(), &dto.SetStockInput{ItemID: "item-1", PhysicalStock: -1})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) { return nil, lock.ErrBusy }

func TestStockChangeBusy(t *testing.T) {
	uc, repo, _ := setup(t)
	uc.locker = busyLocker{}

	_, err := uc.AddStock(context.Background(), &dto.StockChangeInput{ItemID: "item-1", Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Empty(t, repo.ledger)
}
