package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit/audittest"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	rows    map[string]*model.Company
	findAll int
}

func (m *memRepo) Create(_ context.Context, c *model.Company) error {
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*model.Company, error) {
	if c, ok := m.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) FindByName(_ context.Context, name string) (*model.Company, error) {
	for _, c := range m.rows {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) FindAll(_ context.Context, _ *dto.CompanyFilters) ([]model.Company, int, error) {
	m.findAll++
	var out []model.Company
	for _, c := range m.rows {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, c *model.Company) error {
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func newUseCase(kind model.CompanyKind) (*companyUseCase, *memRepo, *audittest.Recorder) {
	repo := &memRepo{rows: map[string]*model.Company{}}
	rec := &audittest.Recorder{}
	uc := NewCompanyUseCase(kind, repo, cache.New(time.Minute, logger.NewNop()), rec, logger.NewNop())
	return uc.(*companyUseCase), repo, rec
}

func TestCreateCompanyRequiresName(t *testing.T) {
	uc, repo, _ := newUseCase(model.CompanyKindCustomer)
	_, err := uc.CreateCompany(context.Background(), &dto.CompanyInput{Name: "   "})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Empty(t, repo.rows)
}

func TestCreateCompanyRejectsDuplicateName(t *testing.T) {
	uc, _, _ := newUseCase(model.CompanyKindCustomer)
	ctx := context.Background()

	_, err := uc.CreateCompany(ctx, &dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = uc.CreateCompany(ctx, &dto.CompanyInput{Name: "acme "})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestUpsertByNameKeepsStoredFields(t *testing.T) {
	uc, repo, rec := newUseCase(model.CompanyKindTransport)
	ctx := context.Background()

	first, created, err := uc.UpsertByName(ctx, &dto.CompanyInput{Name: "Fast Cargo", Phone: "555-1"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := uc.UpsertByName(ctx, &dto.CompanyInput{Name: "FAST CARGO", Email: "ops@fast.test"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	stored := repo.rows[first.ID]
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "555-1", *stored.Phone)
	require.NotNil(t, stored.Email)
	assert.Equal(t, "ops@fast.test", *stored.Email)

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "transport_company", entries[1].Entity)
}

func TestGetCompanyNotFoundUsesKindMessage(t *testing.T) {
	uc, _, _ := newUseCase(model.CompanyKindTransport)
	_, err := uc.GetCompany(context.Background(), "nope")

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "transport.not_found", ae.MessageID)
}

func TestListCompaniesInvalidatedOnDelete(t *testing.T) {
	uc, repo, _ := newUseCase(model.CompanyKindCustomer)
	ctx := context.Background()

	c, err := uc.CreateCompany(ctx, &dto.CompanyInput{Name: "Acme"})
	require.NoError(t, err)

	list, _, err := uc.ListCompanies(ctx, &dto.CompanyFilters{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, _, _ = uc.ListCompanies(ctx, &dto.CompanyFilters{})
	assert.Equal(t, 1, repo.findAll)

	require.NoError(t, uc.DeleteCompany(ctx, c.ID))
	list, _, err = uc.ListCompanies(ctx, &dto.CompanyFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, repo.findAll)
}
