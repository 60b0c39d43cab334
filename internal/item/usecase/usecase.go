package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/item"
	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const indexName = "items"

const indexMapping = `{
	"mappings": {
		"properties": {
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"unit": { "type": "keyword" },
			"description": { "type": "text" },
			"physical_stock": { "type": "integer" },
			"reserved_stock": { "type": "integer" },
			"reorder_point": { "type": "integer" },
			"created_at": { "type": "date" }
		}
	}
}`

type itemUseCase struct {
	repo   item.Repository
	cache  *cache.Cache
	es     item.SearchIndex
	audit  audit.Recorder
	logger logger.ZapLogger
}

// NewItemUseCase wires the item usecase. es may be nil, in which case search
// goes straight to the database.
func NewItemUseCase(repo item.Repository, c *cache.Cache, es item.SearchIndex, rec audit.Recorder, log logger.ZapLogger) item.UseCase {
	return &itemUseCase{
		repo:   repo,
		cache:  c,
		es:     es,
		audit:  rec,
		logger: log,
	}
}

func validate(sku, name string, stock int) error {
	if strings.TrimSpace(sku) == "" {
		return apperror.Validation("item.sku_required", "sku is empty")
	}
	if strings.TrimSpace(name) == "" {
		return apperror.Validation("item.name_required", "name is empty")
	}
	if stock < 0 {
		return apperror.Validation("item.invalid_stock", "physical_stock=%d", stock)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (uc *itemUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error) {
	if err := validate(input.SKU, input.Name, input.PhysicalStock); err != nil {
		return nil, err
	}
	if input.ReorderPoint < 0 {
		return nil, apperror.Validation("item.invalid_stock", "reorder_point=%d", input.ReorderPoint)
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperror.Conflict("item.sku_exists", "sku=%s", input.SKU).
			WithData(map[string]interface{}{"SKU": input.SKU})
	}

	now := time.Now()
	it := &model.Item{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:           strings.TrimSpace(input.SKU),
		Name:          strings.TrimSpace(input.Name),
		Unit:          strings.TrimSpace(input.Unit),
		Description:   optional(input.Description),
		PhysicalStock: input.PhysicalStock,
		ReorderPoint:  input.ReorderPoint,
	}

	if err := uc.repo.Create(ctx, it); err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditCreate, it, input.UserID)
	return it, nil
}

func (uc *itemUseCase) GetItem(ctx context.Context, id string) (*model.Item, error) {
	it, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperror.NotFound("item.not_found", "id=%s", id)
	}
	return it, nil
}

// GetItemBySKU returns nil, nil when no item has the SKU.
func (uc *itemUseCase) GetItemBySKU(ctx context.Context, sku string) (*model.Item, error) {
	return uc.repo.FindBySKU(ctx, strings.TrimSpace(sku))
}

type page struct {
	Items []model.Item
	Count int
}

func (uc *itemUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error) {
	key, _ := json.Marshal(filters)
	p, err := cache.Load(ctx, uc.cache, cache.EntityItems, fmt.Sprintf("%x", md5.Sum(key)), func(ctx context.Context) (page, error) {
		if filters.SearchQuery != "" && !filters.LowStock && uc.es != nil {
			items, count, err := uc.searchElastic(ctx, filters)
			if err == nil {
				return page{Items: items, Count: count}, nil
			}
			uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
		}
		items, count, err := uc.repo.FindAll(ctx, filters)
		return page{Items: items, Count: count}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.Items, p.Count, nil
}

func (uc *itemUseCase) searchElastic(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
				"fields": []string{"name^3", "sku", "description"},
			},
		},
	}
	if filters.PageSize > 0 {
		q["from"] = (max(filters.Page, 1) - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]model.Item, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var it model.Item
		if err := json.Unmarshal(hit.Source, &it); err == nil {
			items = append(items, it)
		}
	}
	return items, res.Hits.Total.Value, nil
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error) {
	it, err := uc.GetItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := validate(input.SKU, input.Name, 0); err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(input.SKU)
	if it.SKU != sku {
		unique, err := uc.repo.IsSKUUnique(ctx, sku, it.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperror.Conflict("item.sku_exists", "sku=%s", sku).
				WithData(map[string]interface{}{"SKU": sku})
		}
	}

	it.SKU = sku
	it.Name = strings.TrimSpace(input.Name)
	it.Unit = strings.TrimSpace(input.Unit)
	it.Description = optional(input.Description)
	it.ReorderPoint = input.ReorderPoint
	it.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, it); err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditUpdate, it, input.UserID)
	return it, nil
}

func (uc *itemUseCase) DeleteItem(ctx context.Context, id string) error {
	it, err := uc.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.afterWrite(ctx, model.AuditDelete, it, auth.GetUserID(ctx))
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to remove item from index", zap.String("id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *itemUseCase) UpsertBySKU(ctx context.Context, input *dto.UpsertItemInput) (*model.Item, bool, error) {
	existing, err := uc.repo.FindBySKU(ctx, strings.TrimSpace(input.SKU))
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		create := &dto.CreateItemInput{
			SKU:         input.SKU,
			Name:        input.Name,
			Unit:        input.Unit,
			Description: input.Description,
			UserID:      input.UserID,
		}
		if input.PhysicalStock != nil {
			create.PhysicalStock = *input.PhysicalStock
		}
		if input.ReorderPoint != nil {
			create.ReorderPoint = *input.ReorderPoint
		}
		it, err := uc.CreateItem(ctx, create)
		return it, true, err
	}

	update := &dto.UpdateItemInput{
		ID:           existing.ID,
		SKU:          existing.SKU,
		Name:         input.Name,
		Unit:         keep(input.Unit, existing.Unit),
		ReorderPoint: existing.ReorderPoint,
		UserID:       input.UserID,
	}
	if existing.Description != nil {
		update.Description = *existing.Description
	}
	if d := strings.TrimSpace(input.Description); d != "" {
		update.Description = d
	}
	if input.ReorderPoint != nil {
		if *input.ReorderPoint < 0 {
			return nil, false, apperror.Validation("item.invalid_stock", "reorder_point=%d", *input.ReorderPoint)
		}
		update.ReorderPoint = *input.ReorderPoint
	}

	it, err := uc.UpdateItem(ctx, update)
	return it, false, err
}

func keep(in, stored string) string {
	if s := strings.TrimSpace(in); s != "" {
		return s
	}
	return stored
}

func (uc *itemUseCase) afterWrite(ctx context.Context, event model.AuditEvent, it *model.Item, userID string) {
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}
	uc.cache.Invalidate(ctx, cache.EntityItems)
	uc.audit.Record(ctx, audit.Entry{
		EventType:   event,
		Entity:      "item",
		EntityID:    it.ID,
		PerformedBy: userID,
		Payload:     it,
	})

	if event != model.AuditDelete {
		snapshot := *it
		go uc.syncToElastic(context.Background(), &snapshot)
	}
}

func (uc *itemUseCase) syncToElastic(ctx context.Context, it *model.Item) {
	if uc.es == nil {
		return
	}
	_ = uc.es.CreateIndex(ctx, indexName, indexMapping)

	if err := uc.es.Index(ctx, indexName, it.ID, it); err != nil {
		uc.logger.Error("failed to index item", zap.String("id", it.ID), zap.Error(err))
	}
}
