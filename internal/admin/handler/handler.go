package handler

import (
	"github.com/fekuna/omnipos-erp-service/internal/admin"
	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	uc     admin.UseCase
	logger logger.ZapLogger
}

func NewAdminHandler(uc admin.UseCase, log logger.ZapLogger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: log}
}

// Register expects rg to already require an admin token.
func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/admin/delete-all", h.DeleteAll)
}

func (h *AdminHandler) DeleteAll(c *gin.Context) {
	var req struct {
		Confirm string `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	removed, err := h.uc.DeleteAll(c.Request.Context(), req.Confirm, auth.GetUserID(c.Request.Context()))
	if err != nil {
		h.logger.Error("delete-all failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, "all business data deleted", removed)
}
