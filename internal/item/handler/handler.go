package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/item"
	"github.com/fekuna/omnipos-erp-service/internal/item/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ItemHandler struct {
	uc     item.UseCase
	logger logger.ZapLogger
}

func NewItemHandler(uc item.UseCase, log logger.ZapLogger) *ItemHandler {
	return &ItemHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ItemHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/items")
	g.GET("", h.ListItems)
	g.POST("", h.CreateItem)
	g.GET("/:id", h.GetItem)
	g.PUT("/:id", h.UpdateItem)
	g.DELETE("/:id", h.DeleteItem)
}

type itemRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	Description   string `json:"description"`
	PhysicalStock int    `json:"physical_stock"`
	ReorderPoint  int    `json:"reorder_point"`
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	it, err := h.uc.CreateItem(c.Request.Context(), &dto.CreateItemInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Unit:          req.Unit,
		Description:   req.Description,
		PhysicalStock: req.PhysicalStock,
		ReorderPoint:  req.ReorderPoint,
		UserID:        auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		h.logger.Warn("failed to create item", zap.String("sku", req.SKU), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, "item created", it)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	it, err := h.uc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", it)
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	lowStock, _ := strconv.ParseBool(c.DefaultQuery("low_stock", "false"))

	items, total, err := h.uc.ListItems(c.Request.Context(), &dto.ItemFilters{
		SearchQuery: c.Query("q"),
		LowStock:    lowStock,
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, total)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	it, err := h.uc.UpdateItem(c.Request.Context(), &dto.UpdateItemInput{
		ID:           c.Param("id"),
		SKU:          req.SKU,
		Name:         req.Name,
		Unit:         req.Unit,
		Description:  req.Description,
		ReorderPoint: req.ReorderPoint,
		UserID:       auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "item updated", it)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.uc.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Warn("failed to delete item", zap.String("id", c.Param("id")), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, "item deleted", nil)
}
