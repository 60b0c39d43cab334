package usecase

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/admin"
	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"go.uber.org/zap"
)

type adminUseCase struct {
	repo   admin.Repository
	cache  *cache.Cache
	audit  audit.Recorder
	logger logger.ZapLogger
}

func NewAdminUseCase(repo admin.Repository, c *cache.Cache, rec audit.Recorder, log logger.ZapLogger) admin.UseCase {
	return &adminUseCase{repo: repo, cache: c, audit: rec, logger: log}
}

func (uc *adminUseCase) DeleteAll(ctx context.Context, confirm, actorID string) (map[string]int64, error) {
	if confirm != admin.ConfirmPhrase {
		return nil, apperror.Validation("admin.confirm_required", "confirm=%q", confirm)
	}

	removed, err := uc.repo.PurgeBusinessData(ctx)
	if err != nil {
		return nil, err
	}

	uc.logger.Warn("business data purged", zap.String("by", actorID), zap.Any("removed", removed))
	uc.cache.Invalidate(ctx,
		cache.EntityOrders,
		cache.EntityItems,
		cache.EntityCompanies,
		cache.EntityTransportCompanies,
		cache.EntityAuditLogs,
	)
	// Recorded after the purge so the trail starts with who wiped it.
	uc.audit.Record(ctx, audit.Entry{
		EventType:   model.AuditDelete,
		Entity:      "all",
		EntityID:    "all",
		PerformedBy: actorID,
		Payload:     removed,
	})
	return removed, nil
}
