package item

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/search"
)

type UseCase interface {
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)
	UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	GetItemBySKU(ctx context.Context, sku string) (*model.Item, error)

	// UpsertBySKU updates the item with a matching SKU or creates it. Used by
	// bulk import. Blank optional fields keep the stored value and physical
	// stock of an existing item is never touched.
	UpsertBySKU(ctx context.Context, input *dto.UpsertItemInput) (*model.Item, bool, error)
}

// SearchIndex is the subset of the search client the item usecase needs.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
}
