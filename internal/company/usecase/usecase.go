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
	"github.com/fekuna/omnipos-erp-service/internal/company"
	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type companyUseCase struct {
	kind   model.CompanyKind
	repo   company.Repository
	cache  *cache.Cache
	audit  audit.Recorder
	logger logger.ZapLogger
}

func NewCompanyUseCase(kind model.CompanyKind, repo company.Repository, c *cache.Cache, rec audit.Recorder, log logger.ZapLogger) company.UseCase {
	return &companyUseCase{
		kind:   kind,
		repo:   repo,
		cache:  c,
		audit:  rec,
		logger: log.With(zap.String("kind", string(kind))),
	}
}

func (uc *companyUseCase) Kind() model.CompanyKind { return uc.kind }

func (uc *companyUseCase) entity() cache.Entity {
	if uc.kind == model.CompanyKindTransport {
		return cache.EntityTransportCompanies
	}
	return cache.EntityCompanies
}

func (uc *companyUseCase) notFound(id string) error {
	if uc.kind == model.CompanyKindTransport {
		return apperror.NotFound("transport.not_found", "id=%s", id)
	}
	return apperror.NotFound("company.not_found", "id=%s", id)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *companyUseCase) CreateCompany(ctx context.Context, input *dto.CompanyInput) (*model.Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("company.name_required", "name is empty")
	}

	existing, err := uc.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("company.name_exists", "name=%s", name).
			WithData(map[string]interface{}{"Name": name})
	}

	now := time.Now()
	c := &model.Company{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:          name,
		ContactPerson: optional(input.ContactPerson),
		Phone:         optional(input.Phone),
		Email:         optional(input.Email),
		Address:       optional(input.Address),
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditCreate, c, input.UserID)
	return c, nil
}

func (uc *companyUseCase) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, uc.notFound(id)
	}
	return c, nil
}

func (uc *companyUseCase) FindByName(ctx context.Context, name string) (*model.Company, error) {
	return uc.repo.FindByName(ctx, name)
}

type page struct {
	Companies []model.Company
	Count     int
}

func (uc *companyUseCase) ListCompanies(ctx context.Context, filters *dto.CompanyFilters) ([]model.Company, int, error) {
	key, _ := json.Marshal(filters)
	p, err := cache.Load(ctx, uc.cache, uc.entity(), fmt.Sprintf("%x", md5.Sum(key)), func(ctx context.Context) (page, error) {
		companies, count, err := uc.repo.FindAll(ctx, filters)
		return page{Companies: companies, Count: count}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.Companies, p.Count, nil
}

func (uc *companyUseCase) UpdateCompany(ctx context.Context, input *dto.CompanyInput) (*model.Company, error) {
	c, err := uc.GetCompany(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("company.name_required", "name is empty")
	}
	if !strings.EqualFold(name, c.Name) {
		existing, err := uc.repo.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != c.ID {
			return nil, apperror.Conflict("company.name_exists", "name=%s", name).
				WithData(map[string]interface{}{"Name": name})
		}
	}

	c.Name = name
	c.ContactPerson = optional(input.ContactPerson)
	c.Phone = optional(input.Phone)
	c.Email = optional(input.Email)
	c.Address = optional(input.Address)
	c.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditUpdate, c, input.UserID)
	return c, nil
}

func (uc *companyUseCase) DeleteCompany(ctx context.Context, id string) error {
	c, err := uc.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.afterWrite(ctx, model.AuditDelete, c, "")
	return nil
}

// UpsertByName updates the company whose name matches (case-insensitive) or
// creates a new one. Blank optional fields keep their stored values.
func (uc *companyUseCase) UpsertByName(ctx context.Context, input *dto.CompanyInput) (*model.Company, bool, error) {
	existing, err := uc.repo.FindByName(ctx, input.Name)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		c, err := uc.CreateCompany(ctx, input)
		return c, true, err
	}

	merged := &dto.CompanyInput{
		ID:            existing.ID,
		Name:          existing.Name,
		ContactPerson: pick(input.ContactPerson, existing.ContactPerson),
		Phone:         pick(input.Phone, existing.Phone),
		Email:         pick(input.Email, existing.Email),
		Address:       pick(input.Address, existing.Address),
		UserID:        input.UserID,
	}
	c, err := uc.UpdateCompany(ctx, merged)
	return c, false, err
}

func pick(in string, current *string) string {
	if strings.TrimSpace(in) != "" || current == nil {
		return in
	}
	return *current
}

func (uc *companyUseCase) afterWrite(ctx context.Context, event model.AuditEvent, c *model.Company, userID string) {
	if userID == "" {
		userID = auth.GetUserID(ctx)
	}
	uc.cache.Invalidate(ctx, uc.entity())
	uc.audit.Record(ctx, audit.Entry{
		EventType:   event,
		Entity:      string(uc.kind),
		EntityID:    c.ID,
		PerformedBy: userID,
		Payload:     c,
	})
}
