package item

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	FindBySKU(ctx context.Context, sku string) (*model.Item, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id string) error

	// Check SKU uniqueness
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
}
