package handler

import (
	"strconv"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	uc     audit.UseCase
	logger logger.ZapLogger
}

func NewAuditHandler(uc audit.UseCase, log logger.ZapLogger) *AuditHandler {
	return &AuditHandler{uc: uc, logger: log}
}

func (h *AuditHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.ListAuditLogs)
}

func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filters := &dto.AuditFilters{
		Entity:      c.Query("entity"),
		EntityID:    c.Query("entity_id"),
		EventType:   c.Query("event_type"),
		PerformedBy: c.Query("performed_by"),
		Page:        page,
		PageSize:    pageSize,
	}
	if s := c.Query("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filters.StartDate = &t
		}
	}
	if s := c.Query("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filters.EndDate = &t
		}
	}

	logs, total, err := h.uc.ListAuditLogs(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, logs, total)
}
