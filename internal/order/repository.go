package order

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
)

// ErrBatchUnsupported is returned by UpdateDeliveredQuantities when the
// database lacks the batch delivery function.
var ErrBatchUnsupported = errors.New("batch delivery update not supported")

type Repository interface {
	// WithTx runs fn against a repository bound to a single transaction.
	// Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	NextReferenceCode(ctx context.Context, prefix string) (string, error)

	CreateOrder(ctx context.Context, o *model.Order) error
	CreateOrderItems(ctx context.Context, items []model.OrderItem) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	ListOrderItems(ctx context.Context, orderIDs ...string) ([]model.OrderItem, error)
	UpdateOrder(ctx context.Context, o *model.Order) error
	ReplaceOrderItems(ctx context.Context, orderID string, items []model.OrderItem) error
	DeleteOrder(ctx context.Context, id string) error

	// AdjustReservedStock adds delta to the item's reserved_stock in one
	// statement, flooring the result at zero.
	AdjustReservedStock(ctx context.Context, itemID string, delta int) error

	UpdateDeliveredQuantities(ctx context.Context, orderID string, lines []dto.DeliveryLine) error
	UpdateDeliveredQuantity(ctx context.Context, orderID, itemID string, delivered int) error

	GetItemsByIDs(ctx context.Context, ids []string) ([]model.Item, error)
	CompanyExists(ctx context.Context, kind model.CompanyKind, id string) (bool, error)
}
