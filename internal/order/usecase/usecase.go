package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/internal/refcode"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/lock"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultDeliveryTimeout = 10 * time.Second

type orderUseCase struct {
	repo            order.Repository
	locker          lock.Locker
	cache           *cache.Cache
	audit           audit.Recorder
	deliveryTimeout time.Duration
	logger          logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, locker lock.Locker, c *cache.Cache, rec audit.Recorder, deliveryTimeout time.Duration, log logger.ZapLogger) order.UseCase {
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultDeliveryTimeout
	}
	return &orderUseCase{
		repo:            repo,
		locker:          locker,
		cache:           c,
		audit:           rec,
		deliveryTimeout: deliveryTimeout,
		logger:          log,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func validateLines(lines []dto.OrderLine) error {
	if len(lines) == 0 {
		return apperror.Validation("order.items_required", "no lines")
	}
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		if l.ItemID == "" {
			return apperror.Validation("order.items_required", "line %d has no item", i+1)
		}
		if l.Quantity <= 0 {
			return apperror.Validation("order.invalid_quantity", "line %d quantity=%d", i+1, l.Quantity)
		}
		if _, dup := seen[l.ItemID]; dup {
			return apperror.Validation("order.duplicate_item", "item=%s", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
	}
	return nil
}

func (uc *orderUseCase) requireCompany(ctx context.Context, kind model.CompanyKind, id string) error {
	ok, err := uc.repo.CompanyExists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		if kind == model.CompanyKindTransport {
			return apperror.NotFound("transport.not_found", "id=%s", id)
		}
		return apperror.NotFound("company.not_found", "id=%s", id)
	}
	return nil
}

func (uc *orderUseCase) loadItems(ctx context.Context, lines []dto.OrderLine) (map[string]model.Item, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	items, err := uc.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperror.Validation("order.item_missing", "item=%s", id).
				WithData(map[string]interface{}{"ItemID": id})
		}
	}
	return byID, nil
}

// oversellWarnings reports lines asking for more than is available. Overselling
// is allowed; the shortfall is settled by hand later.
func (uc *orderUseCase) oversellWarnings(lines []dto.OrderLine, items map[string]model.Item) []string {
	var warnings []string
	for _, l := range lines {
		it := items[l.ItemID]
		if l.Quantity <= it.Available() {
			continue
		}
		uc.logger.Warn("order line exceeds available stock",
			zap.String("item_id", it.ID),
			zap.String("sku", it.SKU),
			zap.Int("quantity", l.Quantity),
			zap.Int("available", it.Available()),
		)
		warnings = append(warnings, fmt.Sprintf("%s (%s): ordered %d, available %d", it.Name, it.SKU, l.Quantity, it.Available()))
	}
	return warnings
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*dto.CreateOrderResult, error) {
	if strings.TrimSpace(input.CompanyID) == "" {
		return nil, apperror.Validation("order.company_required", "company_id is empty")
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}

	if err := uc.requireCompany(ctx, model.CompanyKindCustomer, input.CompanyID); err != nil {
		return nil, err
	}
	if input.TransportCompanyID != "" {
		if err := uc.requireCompany(ctx, model.CompanyKindTransport, input.TransportCompanyID); err != nil {
			return nil, err
		}
	}
	items, err := uc.loadItems(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	warnings := uc.oversellWarnings(input.Lines, items)

	createdBy := input.CreatedBy
	if createdBy == "" {
		createdBy = auth.GetUserID(ctx)
	}

	now := time.Now()
	o := &model.Order{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CompanyID:          input.CompanyID,
		TransportCompanyID: optional(input.TransportCompanyID),
		Status:             model.OrderStatusReserved,
		CreatedBy:          optional(createdBy),
		Notes:              optional(input.Notes),
	}
	for _, l := range input.Lines {
		o.Items = append(o.Items, model.OrderItem{
			OrderID:  o.ID,
			ItemID:   l.ItemID,
			Quantity: l.Quantity,
			Price:    l.Price,
			DueDate:  l.DueDate,
		})
	}

	err = uc.repo.WithTx(ctx, func(tx order.Repository) error {
		code, err := tx.NextReferenceCode(ctx, refcode.PrefixOrder)
		if err != nil {
			return err
		}
		o.ReferenceCode = code

		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.CreateOrderItems(ctx, o.Items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return applyDeltas(ctx, tx, reservationDeltas("", nil, o.Status, o.Items))
	})
	if err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditCreate, o, createdBy, o, true)
	return &dto.CreateOrderResult{Order: o, Warnings: warnings}, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.NotFound("order.not_found", "id=%s", id)
	}
	items, err := uc.repo.ListOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

type page struct {
	Orders []model.Order
	Count  int
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	key, _ := json.Marshal(filters)
	p, err := cache.Load(ctx, uc.cache, cache.EntityOrders, fmt.Sprintf("%x", md5.Sum(key)), func(ctx context.Context) (page, error) {
		orders, count, err := uc.repo.FindAll(ctx, filters)
		if err != nil || len(orders) == 0 {
			return page{Orders: orders, Count: count}, err
		}

		ids := make([]string, len(orders))
		index := make(map[string]int, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
			index[o.ID] = i
		}
		lines, err := uc.repo.ListOrderItems(ctx, ids...)
		if err != nil {
			return page{}, err
		}
		for _, l := range lines {
			if i, ok := index[l.OrderID]; ok {
				orders[i].Items = append(orders[i].Items, l)
			}
		}
		return page{Orders: orders, Count: count}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return p.Orders, p.Count, nil
}

func (uc *orderUseCase) acquire(ctx context.Context, orderID string) (func(), error) {
	release, err := uc.locker.Acquire(ctx, "lock:order:"+orderID)
	if errors.Is(err, lock.ErrBusy) {
		return nil, apperror.Wrap(apperror.KindConflict, "order.busy", err)
	}
	return release, err
}

func (uc *orderUseCase) UpdateOrder(ctx context.Context, input *dto.UpdateOrderInput) (*model.Order, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperror.Validation("order.invalid_status", "status=%q", *input.Status)
	}
	if input.Lines != nil {
		if err := validateLines(input.Lines); err != nil {
			return nil, err
		}
	}

	release, err := uc.acquire(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	o, err := uc.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	before := *o
	oldItems := o.Items

	if input.CompanyID != nil {
		if strings.TrimSpace(*input.CompanyID) == "" {
			return nil, apperror.Validation("order.company_required", "company_id is empty")
		}
		if *input.CompanyID != o.CompanyID {
			if err := uc.requireCompany(ctx, model.CompanyKindCustomer, *input.CompanyID); err != nil {
				return nil, err
			}
		}
		o.CompanyID = *input.CompanyID
	}
	if input.TransportCompanyID != nil {
		if *input.TransportCompanyID != "" {
			if err := uc.requireCompany(ctx, model.CompanyKindTransport, *input.TransportCompanyID); err != nil {
				return nil, err
			}
		}
		o.TransportCompanyID = optional(*input.TransportCompanyID)
	}
	if input.Notes != nil {
		o.Notes = optional(*input.Notes)
	}
	if input.Status != nil {
		o.Status = *input.Status
	}

	newItems := oldItems
	if input.Lines != nil {
		if _, err := uc.loadItems(ctx, input.Lines); err != nil {
			return nil, err
		}
		newItems, err = mergeLines(o.ID, oldItems, input.Lines)
		if err != nil {
			return nil, err
		}
	}
	deltas := reservationDeltas(before.Status, oldItems, o.Status, newItems)

	o.UpdatedAt = time.Now()
	err = uc.repo.WithTx(ctx, func(tx order.Repository) error {
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		if input.Lines != nil {
			if err := tx.ReplaceOrderItems(ctx, o.ID, newItems); err != nil {
				return err
			}
		}
		return applyDeltas(ctx, tx, deltas)
	})
	if err != nil {
		return nil, err
	}
	o.Items = newItems

	if before.Status != o.Status {
		uc.logger.Info("order status changed",
			zap.String("order_id", o.ID),
			zap.String("from", string(before.Status)),
			zap.String("to", string(o.Status)),
		)
	}
	uc.afterWrite(ctx, model.AuditUpdate, o, input.UserID, map[string]interface{}{
		"before": before,
		"after":  o,
	}, len(deltas) > 0)
	return o, nil
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, userID string) (*model.Order, error) {
	return uc.UpdateOrder(ctx, &dto.UpdateOrderInput{ID: id, Status: &status, UserID: userID})
}

// mergeLines builds the replacement line set, carrying delivered quantities
// over for items that stay on the order.
func mergeLines(orderID string, current []model.OrderItem, lines []dto.OrderLine) ([]model.OrderItem, error) {
	delivered := make(map[string]int, len(current))
	for _, it := range current {
		delivered[it.ItemID] = it.DeliveredQuantity
	}

	out := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		d := delivered[l.ItemID]
		if l.Quantity < d {
			return nil, apperror.Validation("order.quantity_below_delivered", "item=%s quantity=%d delivered=%d", l.ItemID, l.Quantity, d)
		}
		out = append(out, model.OrderItem{
			OrderID:           orderID,
			ItemID:            l.ItemID,
			Quantity:          l.Quantity,
			DeliveredQuantity: d,
			Price:             l.Price,
			DueDate:           l.DueDate,
		})
	}
	return out, nil
}

// DeleteOrder releases only what the order still reserves: the undelivered
// quantity of each line, and nothing once the order is completed or cancelled.
func (uc *orderUseCase) DeleteOrder(ctx context.Context, id, userID string) error {
	release, err := uc.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	deltas := reservationDeltas(o.Status, o.Items, "", nil)
	err = uc.repo.WithTx(ctx, func(tx order.Repository) error {
		if err := applyDeltas(ctx, tx, deltas); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, o.ID)
	})
	if err != nil {
		return err
	}

	uc.afterWrite(ctx, model.AuditDelete, o, userID, o, true)
	return nil
}

func (uc *orderUseCase) prepareDeliveries(ctx context.Context, input *dto.RecordDeliveriesInput) (*model.Order, map[string]model.OrderItem, error) {
	if len(input.Lines) == 0 {
		return nil, nil, apperror.Validation("order.items_required", "no delivery lines")
	}
	o, err := uc.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, nil, err
	}

	byItem := make(map[string]model.OrderItem, len(o.Items))
	for _, it := range o.Items {
		byItem[it.ItemID] = it
	}
	seen := make(map[string]struct{}, len(input.Lines))
	for _, l := range input.Lines {
		it, ok := byItem[l.ItemID]
		if !ok {
			return nil, nil, apperror.Validation("order.unknown_item", "item=%s", l.ItemID)
		}
		if _, dup := seen[l.ItemID]; dup {
			return nil, nil, apperror.Validation("order.duplicate_item", "item=%s", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
		if l.DeliveredQuantity < 0 || l.DeliveredQuantity > it.Quantity {
			return nil, nil, apperror.Validation("order.invalid_delivery", "item=%s delivered=%d quantity=%d", l.ItemID, l.DeliveredQuantity, it.Quantity)
		}
	}
	return o, byItem, nil
}

func (uc *orderUseCase) RecordDeliveries(ctx context.Context, input *dto.RecordDeliveriesInput) (*dto.DeliveryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.deliveryTimeout)
	defer cancel()

	release, err := uc.acquire(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	o, byItem, err := uc.prepareDeliveries(ctx, input)
	if err != nil {
		return nil, err
	}

	err = uc.repo.WithTx(ctx, func(tx order.Repository) error {
		return tx.UpdateDeliveredQuantities(ctx, o.ID, input.Lines)
	})
	if errors.Is(err, order.ErrBatchUnsupported) {
		uc.logger.Warn("batch delivery update unavailable, updating line by line", zap.String("order_id", o.ID))
		return uc.applyDeliveriesOneByOne(ctx, o, byItem, input)
	}
	if err != nil {
		return nil, err
	}

	return uc.finishDeliveries(ctx, o, input, &dto.DeliveryResult{})
}

func (uc *orderUseCase) RecordDeliveriesFallback(ctx context.Context, input *dto.RecordDeliveriesInput) (*dto.DeliveryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.deliveryTimeout)
	defer cancel()

	release, err := uc.acquire(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer release()

	o, byItem, err := uc.prepareDeliveries(ctx, input)
	if err != nil {
		return nil, err
	}
	return uc.applyDeliveriesOneByOne(ctx, o, byItem, input)
}

// applyDeliveriesOneByOne writes each line on its own. A failing line is
// reported and the rest still go through.
func (uc *orderUseCase) applyDeliveriesOneByOne(ctx context.Context, o *model.Order, byItem map[string]model.OrderItem, input *dto.RecordDeliveriesInput) (*dto.DeliveryResult, error) {
	result := &dto.DeliveryResult{Fallback: true}
	for _, l := range input.Lines {
		diff := l.DeliveredQuantity - byItem[l.ItemID].DeliveredQuantity
		if diff == 0 {
			continue
		}
		if err := uc.repo.UpdateDeliveredQuantity(ctx, o.ID, l.ItemID, l.DeliveredQuantity); err != nil {
			uc.logger.Error("failed to update delivered quantity", zap.String("order_id", o.ID), zap.String("item_id", l.ItemID), zap.Error(err))
			result.Errors = append(result.Errors, dto.DeliveryError{ItemID: l.ItemID, Error: err.Error()})
			continue
		}
		if !o.Status.HoldsReservation() {
			continue
		}
		if err := uc.repo.AdjustReservedStock(ctx, l.ItemID, -diff); err != nil {
			uc.logger.Error("failed to move reservation after delivery", zap.String("order_id", o.ID), zap.String("item_id", l.ItemID), zap.Error(err))
			result.Errors = append(result.Errors, dto.DeliveryError{ItemID: l.ItemID, Error: err.Error()})
		}
	}
	return uc.finishDeliveries(ctx, o, input, result)
}

func (uc *orderUseCase) finishDeliveries(ctx context.Context, o *model.Order, input *dto.RecordDeliveriesInput, result *dto.DeliveryResult) (*dto.DeliveryResult, error) {
	items, err := uc.repo.ListOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	result.Order = o

	uc.afterWrite(ctx, model.AuditUpdate, o, input.UserID, map[string]interface{}{
		"deliveries": input.Lines,
		"fallback":   result.Fallback,
	}, true)
	return result, nil
}

// reservationDeltas returns the change to reserved_stock per item when an
// order moves from (oldStatus, oldItems) to (newStatus, newItems). Only
// statuses that hold a reservation contribute.
func reservationDeltas(oldStatus model.OrderStatus, oldItems []model.OrderItem, newStatus model.OrderStatus, newItems []model.OrderItem) map[string]int {
	deltas := map[string]int{}
	if oldStatus.HoldsReservation() {
		for _, it := range oldItems {
			deltas[it.ItemID] -= it.Outstanding()
		}
	}
	if newStatus.HoldsReservation() {
		for _, it := range newItems {
			deltas[it.ItemID] += it.Outstanding()
		}
	}
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}
	return deltas
}

// applyDeltas updates items in id order so concurrent transactions take row
// locks in the same sequence.
func applyDeltas(ctx context.Context, repo order.Repository, deltas map[string]int) error {
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := repo.AdjustReservedStock(ctx, id, deltas[id]); err != nil {
			return err
		}
	}
	return nil
}

func (uc *orderUseCase) afterWrite(ctx context.Context, event model.AuditEvent, o *model.Order, userID string, payload interface{}, touchedStock bool) {
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}
	if touchedStock {
		uc.cache.Invalidate(ctx, cache.EntityOrders, cache.EntityItems)
	} else {
		uc.cache.Invalidate(ctx, cache.EntityOrders)
	}
	uc.audit.Record(ctx, audit.Entry{
		EventType:   event,
		Entity:      "order",
		EntityID:    o.ID,
		PerformedBy: userID,
		Payload:     payload,
	})
}
