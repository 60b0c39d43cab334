package order

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*dto.CreateOrderResult, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateOrder(ctx context.Context, input *dto.UpdateOrderInput) (*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus, userID string) (*model.Order, error)
	// DeleteOrder removes the order and its lines. An open order releases the
	// undelivered part of each line (quantity - delivered_quantity) from
	// reserved stock, floored at zero. Closed orders hold nothing to release.
	DeleteOrder(ctx context.Context, id, userID string) error

	// RecordDeliveries sets delivered quantities in one transactional call and
	// falls back to per-item updates when the batch call is unavailable.
	RecordDeliveries(ctx context.Context, input *dto.RecordDeliveriesInput) (*dto.DeliveryResult, error)
	// RecordDeliveriesFallback updates each line independently and collects
	// per-line failures instead of stopping.
	RecordDeliveriesFallback(ctx context.Context, input *dto.RecordDeliveriesInput) (*dto.DeliveryResult, error)
}
