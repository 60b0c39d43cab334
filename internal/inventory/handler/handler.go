package handler

import (
	"strconv"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/inventory"
	"github.com/fekuna/omnipos-erp-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/inventory")
	g.POST("/add", h.AddStock)
	g.POST("/adjust", h.AdjustStock)
	g.PUT("/:item_id/stock", h.SetStock)
	g.GET("/ledger", h.ListLedger)
	g.GET("/low-stock", h.ListLowStock)
}

type stockChangeRequest struct {
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
	Notes         string `json:"notes"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

func (r stockChangeRequest) input(c *gin.Context) *dto.StockChangeInput {
	return &dto.StockChangeInput{
		ItemID:        r.ItemID,
		Quantity:      r.Quantity,
		Notes:         r.Notes,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		UserID:        auth.GetUserID(c.Request.Context()),
	}
}

func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	entry, err := h.uc.AddStock(c.Request.Context(), req.input(c))
	if err != nil {
		h.logger.Warn("failed to add stock", zap.String("item_id", req.ItemID), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, "stock added", entry)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	entry, err := h.uc.AdjustStock(c.Request.Context(), req.input(c))
	if err != nil {
		h.logger.Warn("failed to adjust stock", zap.String("item_id", req.ItemID), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, "stock adjusted", entry)
}

func (h *InventoryHandler) SetStock(c *gin.Context) {
	var req struct {
		PhysicalStock *int `json:"physical_stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if req.PhysicalStock == nil {
		response.Error(c, apperror.Validation("item.invalid_stock", "physical_stock missing"))
		return
	}

	it, err := h.uc.SetStock(c.Request.Context(), &dto.SetStockInput{
		ItemID:        c.Param("item_id"),
		PhysicalStock: *req.PhysicalStock,
		UserID:        auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "stock updated", it)
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, apperror.Validation("common.invalid_payload", "date=%q", s)
		}
		return &t, nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (h *InventoryHandler) ListLedger(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	start, err := parseDate(c.Query("start_date"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseDate(c.Query("end_date"), true)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, total, err := h.uc.ListLedger(c.Request.Context(), &dto.LedgerFilters{
		ItemID:          c.Query("item_id"),
		TransactionType: c.Query("type"),
		StartDate:       start,
		EndDate:         end,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, entries, total)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	items, total, err := h.uc.ListLowStock(c.Request.Context(), &dto.LowStockFilters{Page: page, PageSize: pageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, total)
}
