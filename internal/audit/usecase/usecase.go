package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
)

type auditUseCase struct {
	repo   audit.Repository
	cache  *cache.Cache
	logger logger.ZapLogger
}

func NewAuditUseCase(repo audit.Repository, c *cache.Cache, log logger.ZapLogger) audit.UseCase {
	return &auditUseCase{repo: repo, cache: c, logger: log}
}

type page struct {
	Logs  []model.AuditLog
	Count int
}

func (uc *auditUseCase) ListAuditLogs(ctx context.Context, filters *dto.AuditFilters) ([]model.AuditLog, int, error) {
	key, _ := json.Marshal(filters)
	p, err := cache.Load(ctx, uc.cache, cache.EntityAuditLogs, fmt.Sprintf("%x", md5.Sum(key)), func(ctx context.Context) (page, error) {
		logs, count, err := uc.repo.FindAll(ctx, filters)
		return page{Logs: logs, Count: count}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.Logs, p.Count, nil
}
