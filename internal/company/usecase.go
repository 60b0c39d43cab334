package company

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

// UseCase serves one CompanyKind; the service builds one per table.
type UseCase interface {
	Kind() model.CompanyKind
	CreateCompany(ctx context.Context, input *dto.CompanyInput) (*model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, filters *dto.CompanyFilters) ([]model.Company, int, error)
	UpdateCompany(ctx context.Context, input *dto.CompanyInput) (*model.Company, error)
	DeleteCompany(ctx context.Context, id string) error
	FindByName(ctx context.Context, name string) (*model.Company, error)
	UpsertByName(ctx context.Context, input *dto.CompanyInput) (*model.Company, bool, error)
}
