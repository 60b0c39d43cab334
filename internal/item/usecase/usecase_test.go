package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit/audittest"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	items     map[string]*model.Item
	findAll   int
	deleteErr error

	uniqueChecks int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]*model.Item{}}
}

func (r *fakeRepo) Create(_ context.Context, it *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.items[id]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) FindBySKU(_ context.Context, sku string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.SKU == sku {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindAll(_ context.Context, _ *dto.ItemFilters) ([]model.Item, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findAll++
	out := make([]model.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *it)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, it *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.items, id)
	return nil
}

func (r *fakeRepo) IsSKUUnique(_ context.Context, sku, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uniqueChecks++
	for _, it := range r.items {
		if it.SKU == sku && it.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

type failingIndex struct {
	mu       sync.Mutex
	searched int
}

func (f *failingIndex) CreateIndex(context.Context, string, string) error { return nil }
func (f *failingIndex) Index(context.Context, string, string, interface{}) error {
	return nil
}
func (f *failingIndex) Delete(context.Context, string, string) error { return nil }
func (f *failingIndex) Search(context.Context, string, map[string]interface{}) (*search.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched++
	return nil, errors.New("connection refused")
}

func setup(t *testing.T) (*itemUseCase, *fakeRepo, *audittest.Recorder) {
	t.Helper()
	repo := newFakeRepo()
	rec := &audittest.Recorder{}
	uc := NewItemUseCase(repo, cache.New(time.Minute, logger.NewNop()), nil, rec, logger.NewNop()).(*itemUseCase)
	return uc, repo, rec
}

func TestCreateItem(t *testing.T) {
	uc, repo, rec := setup(t)
	ctx := context.Background()

	it, err := uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Bolt", Unit: "pcs", PhysicalStock: 10, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 10, it.Available())
	assert.Nil(t, it.Description)
	assert.Len(t, repo.items, 1)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditCreate, entries[0].EventType)
	assert.Equal(t, "u1", entries[0].PerformedBy)
}

func TestCreateItemValidation(t *testing.T) {
	uc, repo, rec := setup(t)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, &dto.CreateItemInput{Name: "Bolt"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "S", Name: "Bolt", PhysicalStock: -1})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Empty(t, repo.items)
	assert.Empty(t, rec.Entries())
}

func TestCreateItemDuplicateSKU(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Bolt"})
	require.NoError(t, err)
	_, err = uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Nut"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestListItemsCachedUntilWrite(t *testing.T) {
	uc, repo, _ := setup(t)
	ctx := context.Background()
	filters := &dto.ItemFilters{Page: 1}

	_, _, err := uc.ListItems(ctx, filters)
	require.NoError(t, err)
	_, _, err = uc.ListItems(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findAll)

	_, err = uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Bolt"})
	require.NoError(t, err)

	items, total, err := uc.ListItems(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findAll)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}

func TestListItemsFallsBackToDatabase(t *testing.T) {
	repo := newFakeRepo()
	idx := &failingIndex{}
	uc := NewItemUseCase(repo, cache.New(time.Minute, logger.NewNop()), idx, &audittest.Recorder{}, logger.NewNop())

	_, _, err := uc.ListItems(context.Background(), &dto.ItemFilters{SearchQuery: "bolt"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.searched)
	assert.Equal(t, 1, repo.findAll)
}

func TestDeleteItemReferenced(t *testing.T) {
	uc, repo, rec := setup(t)
	ctx := context.Background()

	it, err := uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Bolt"})
	require.NoError(t, err)

	repo.deleteErr = apperror.Referenced("item.referenced", errors.New("fk"))
	err = uc.DeleteItem(ctx, it.ID)
	assert.True(t, apperror.Is(err, apperror.KindReferenced))
	assert.Len(t, rec.Entries(), 1, "failed delete must not be audited")
}

func TestDeleteItemNotFound(t *testing.T) {
	uc, _, _ := setup(t)
	err := uc.DeleteItem(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func intp(n int) *int { return &n }

func TestUpsertBySKU(t *testing.T) {
	uc, repo, _ := setup(t)
	ctx := context.Background()

	first, created, err := uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "SKU-1", Name: "Bolt", Unit: "pcs", PhysicalStock: intp(4)})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "SKU-1", Name: "Hex bolt", Unit: "box", PhysicalStock: intp(9)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Hex bolt", repo.items[first.ID].Name)
	assert.Equal(t, "box", repo.items[first.ID].Unit)
	assert.Equal(t, 4, repo.items[first.ID].PhysicalStock, "upsert keeps stock counters")
}

func TestUpsertBySKUKeepsStoredValuesForBlankFields(t *testing.T) {
	uc, repo, _ := setup(t)
	ctx := context.Background()

	it, _, err := uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "S", Name: "Bolt", Unit: "pcs", Description: "steel M8", ReorderPoint: intp(20)})
	require.NoError(t, err)

	_, created, err := uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "S", Name: "Bolt M8"})
	require.NoError(t, err)
	assert.False(t, created)

	stored := repo.items[it.ID]
	assert.Equal(t, "Bolt M8", stored.Name)
	assert.Equal(t, "pcs", stored.Unit)
	require.NotNil(t, stored.Description)
	assert.Equal(t, "steel M8", *stored.Description)
	assert.Equal(t, 20, stored.ReorderPoint)

	_, _, err = uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "S", Name: "Bolt M8", ReorderPoint: intp(0)})
	require.NoError(t, err)
	assert.Zero(t, repo.items[it.ID].ReorderPoint, "an explicit zero still overwrites")

	_, _, err = uc.UpsertBySKU(ctx, &dto.UpsertItemInput{SKU: "S", Name: "Bolt M8", ReorderPoint: intp(-1)})
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "item.invalid_stock", ae.MessageID)
}

func TestUpdateItemPaddedSKUSkipsUniquenessCheck(t *testing.T) {
	uc, repo, _ := setup(t)
	ctx := context.Background()

	it, err := uc.CreateItem(ctx, &dto.CreateItemInput{SKU: "SKU-1", Name: "Bolt"})
	require.NoError(t, err)

	repo.uniqueChecks = 0
	updated, err := uc.UpdateItem(ctx, &dto.UpdateItemInput{ID: it.ID, SKU: "  SKU-1 ", Name: "Bolt"})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", updated.SKU)
	assert.Zero(t, repo.uniqueChecks)
}
