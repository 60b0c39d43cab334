package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/inventory"
	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/lock"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	locker lock.Locker
	cache  *cache.Cache
	audit  audit.Recorder
	logger logger.ZapLogger
	now    func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, locker lock.Locker, c *cache.Cache, rec audit.Recorder, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		locker: locker,
		cache:  c,
		audit:  rec,
		logger: log,
		now:    time.Now,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "unknown" {
		return nil
	}
	return &s
}

func (uc *inventoryUseCase) AddStock(ctx context.Context, input *dto.StockChangeInput) (*model.StockLedgerEntry, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("inventory.invalid_quantity", "quantity=%d", input.Quantity)
	}
	return uc.change(ctx, input, model.LedgerStockIn)
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.StockChangeInput) (*model.StockLedgerEntry, error) {
	if input.Quantity == 0 {
		return nil, apperror.Validation("inventory.invalid_quantity", "quantity=0")
	}
	return uc.change(ctx, input, model.LedgerAdjustment)
}

func (uc *inventoryUseCase) change(ctx context.Context, input *dto.StockChangeInput, kind model.LedgerTransaction) (*model.StockLedgerEntry, error) {
	if strings.TrimSpace(input.ItemID) == "" {
		return nil, apperror.Validation("inventory.item_required", "item_id is empty")
	}

	release, err := uc.acquire(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	userID := input.UserID
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}

	entry := &model.StockLedgerEntry{
		ID:              uuid.New().String(),
		ItemID:          input.ItemID,
		TransactionType: kind,
		Quantity:        input.Quantity,
		ReferenceType:   optional(input.ReferenceType),
		ReferenceID:     optional(input.ReferenceID),
		Notes:           input.Notes,
		CreatedBy:       optional(userID),
		CreatedAt:       uc.now(),
	}

	it, err := uc.repo.ApplyStockChange(ctx, entry)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock changed",
		zap.String("item_id", it.ID),
		zap.String("type", string(kind)),
		zap.Int("quantity", input.Quantity),
		zap.Int("balance_after", entry.BalanceAfter),
	)
	uc.afterWrite(ctx, it, userID, entry)
	return entry, nil
}

func (uc *inventoryUseCase) SetStock(ctx context.Context, input *dto.SetStockInput) (*model.Item, error) {
	if strings.TrimSpace(input.ItemID) == "" {
		return nil, apperror.Validation("inventory.item_required", "item_id is empty")
	}
	if input.PhysicalStock < 0 {
		return nil, apperror.Validation("item.invalid_stock", "physical_stock=%d", input.PhysicalStock)
	}

	release, err := uc.acquire(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	it, err := uc.repo.SetPhysicalStock(ctx, input.ItemID, input.PhysicalStock)
	if err != nil {
		return nil, err
	}
	uc.afterWrite(ctx, it, input.UserID, map[string]interface{}{"physical_stock": it.PhysicalStock})
	return it, nil
}

func (uc *inventoryUseCase) ListLedger(ctx context.Context, filters *dto.LedgerFilters) ([]model.StockLedgerEntry, int, error) {
	return uc.repo.ListLedger(ctx, filters)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Item, int, error) {
	return uc.repo.ListLowStock(ctx, filters)
}

func (uc *inventoryUseCase) acquire(ctx context.Context, itemID string) (func(), error) {
	release, err := uc.locker.Acquire(ctx, "lock:inventory:"+itemID)
	if errors.Is(err, lock.ErrBusy) {
		return nil, apperror.Wrap(apperror.KindConflict, "inventory.busy", err)
	}
	return release, err
}

func (uc *inventoryUseCase) afterWrite(ctx context.Context, it *model.Item, userID string, payload interface{}) {
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}
	uc.cache.Invalidate(ctx, cache.EntityItems)
	uc.audit.Record(ctx, audit.Entry{
		EventType:   model.AuditUpdate,
		Entity:      "inventory",
		EntityID:    it.ID,
		PerformedBy: userID,
		Payload:     payload,
	})
}
