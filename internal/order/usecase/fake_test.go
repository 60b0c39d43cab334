package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
)

// fakeRepo is an in-memory order.Repository. WithTx snapshots the state and
// restores it when fn fails, so tests can observe rollbacks.
type fakeRepo struct {
	mu sync.Mutex

	orders    map[string]model.Order
	lines     map[string][]model.OrderItem
	items     map[string]model.Item
	companies map[model.CompanyKind]map[string]bool
	seq       int

	calls []string

	failAdjust       map[string]error
	failDelivered    map[string]error
	batchUnsupported bool
	blockDeliveries  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders: map[string]model.Order{},
		lines:  map[string][]model.OrderItem{},
		items:  map[string]model.Item{},
		companies: map[model.CompanyKind]map[string]bool{
			model.CompanyKindCustomer:  {},
			model.CompanyKindTransport: {},
		},
		failAdjust:    map[string]error{},
		failDelivered: map[string]error{},
	}
}

func (f *fakeRepo) addItem(id string, physical, reserved int) {
	f.items[id] = model.Item{
		BaseModel:     model.BaseModel{ID: id},
		SKU:           "SKU-" + id,
		Name:          "Item " + id,
		PhysicalStock: physical,
		ReservedStock: reserved,
	}
}

func (f *fakeRepo) reserved(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].ReservedStock
}

func (f *fakeRepo) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRepo) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type snapshot struct {
	orders map[string]model.Order
	lines  map[string][]model.OrderItem
	items  map[string]model.Item
	seq    int
}

func (f *fakeRepo) snapshot() snapshot {
	s := snapshot{
		orders: make(map[string]model.Order, len(f.orders)),
		lines:  make(map[string][]model.OrderItem, len(f.lines)),
		items:  make(map[string]model.Item, len(f.items)),
		seq:    f.seq,
	}
	for k, v := range f.orders {
		s.orders[k] = v
	}
	for k, v := range f.lines {
		s.lines[k] = append([]model.OrderItem(nil), v...)
	}
	for k, v := range f.items {
		s.items[k] = v
	}
	return s
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(repo order.Repository) error) error {
	f.mu.Lock()
	s := f.snapshot()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.orders, f.lines, f.items, f.seq = s.orders, s.lines, s.items, s.seq
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepo) NextReferenceCode(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-2026-%06d", prefix, f.seq), nil
}

func (f *fakeRepo) CreateOrder(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateOrder")
	cp := *o
	cp.Items = nil
	f.orders[o.ID] = cp
	return nil
}

func (f *fakeRepo) CreateOrderItems(_ context.Context, items []model.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateOrderItems")
	for _, it := range items {
		f.lines[it.OrderID] = append(f.lines[it.OrderID], it)
	}
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeRepo) FindAll(_ context.Context, _ *dto.OrderFilters) ([]model.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindAll")
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListOrderItems(_ context.Context, orderIDs ...string) ([]model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OrderItem
	for _, id := range orderIDs {
		out = append(out, f.lines[id]...)
	}
	return out, nil
}

func (f *fakeRepo) UpdateOrder(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateOrder")
	cp := *o
	cp.Items = nil
	f.orders[o.ID] = cp
	return nil
}

func (f *fakeRepo) ReplaceOrderItems(_ context.Context, orderID string, items []model.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceOrderItems")
	f.lines[orderID] = append([]model.OrderItem(nil), items...)
	return nil
}

func (f *fakeRepo) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteOrder")
	delete(f.orders, id)
	delete(f.lines, id)
	return nil
}

func (f *fakeRepo) AdjustReservedStock(_ context.Context, itemID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AdjustReservedStock")
	if err := f.failAdjust[itemID]; err != nil {
		return err
	}
	it, ok := f.items[itemID]
	if !ok {
		return apperror.NotFound("item.not_found", "id=%s", itemID)
	}
	it.ReservedStock = max(it.ReservedStock+delta, 0)
	f.items[itemID] = it
	return nil
}

func (f *fakeRepo) UpdateDeliveredQuantities(ctx context.Context, orderID string, lines []dto.DeliveryLine) error {
	if f.blockDeliveries {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDeliveredQuantities")
	if f.batchUnsupported {
		return order.ErrBatchUnsupported
	}

	open := f.orders[orderID].Status.HoldsReservation()
	rows := f.lines[orderID]
	for _, l := range lines {
		for i := range rows {
			if rows[i].ItemID != l.ItemID {
				continue
			}
			diff := l.DeliveredQuantity - rows[i].DeliveredQuantity
			rows[i].DeliveredQuantity = l.DeliveredQuantity
			if open {
				it := f.items[l.ItemID]
				it.ReservedStock = max(it.ReservedStock-diff, 0)
				f.items[l.ItemID] = it
			}
		}
	}
	return nil
}

func (f *fakeRepo) UpdateDeliveredQuantity(_ context.Context, orderID, itemID string, delivered int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDeliveredQuantity")
	if err := f.failDelivered[itemID]; err != nil {
		return err
	}
	rows := f.lines[orderID]
	for i := range rows {
		if rows[i].ItemID == itemID {
			rows[i].DeliveredQuantity = delivered
			return nil
		}
	}
	return apperror.NotFound("order.unknown_item", "item=%s", itemID)
}

func (f *fakeRepo) GetItemsByIDs(_ context.Context, ids []string) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Item
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRepo) CompanyExists(_ context.Context, kind model.CompanyKind, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.companies[kind][id], nil
}
