package company

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id string) (*model.Company, error)
	// FindByName matches case-insensitively on the trimmed name.
	FindByName(ctx context.Context, name string) (*model.Company, error)
	FindAll(ctx context.Context, filters *dto.CompanyFilters) ([]model.Company, int, error)
	Update(ctx context.Context, company *model.Company) error
	Delete(ctx context.Context, id string) error
}
