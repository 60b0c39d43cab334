package handler

import (
	"strconv"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/order"
	"github.com/fekuna/omnipos-erp-service/internal/order/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.GET("", h.ListOrders)
	g.POST("", h.CreateOrder)
	g.GET("/:id", h.GetOrder)
	g.PUT("/:id", h.UpdateOrder)
	g.DELETE("/:id", h.DeleteOrder)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/deliveries", h.RecordDeliveries)
}

type lineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	DueDate  string          `json:"due_date"`
}

// parseDueDate accepts a plain date or an RFC 3339 timestamp.
func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperror.Validation("common.invalid_payload", "due_date=%q", s)
	}
	return &t, nil
}

func toLines(req []lineRequest) ([]dto.OrderLine, error) {
	lines := make([]dto.OrderLine, 0, len(req))
	for _, l := range req {
		due, err := parseDueDate(l.DueDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, dto.OrderLine{ItemID: l.ItemID, Quantity: l.Quantity, Price: l.Price, DueDate: due})
	}
	return lines, nil
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req struct {
		CompanyID          string        `json:"company_id"`
		TransportCompanyID string        `json:"transport_company_id"`
		Notes              string        `json:"notes"`
		Items              []lineRequest `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	lines, err := toLines(req.Items)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.uc.CreateOrder(c.Request.Context(), &dto.CreateOrderInput{
		CompanyID:          req.CompanyID,
		TransportCompanyID: req.TransportCompanyID,
		Notes:              req.Notes,
		CreatedBy:          auth.GetUserID(c.Request.Context()),
		Lines:              lines,
	})
	if err != nil {
		h.logger.Warn("failed to create order", zap.String("company_id", req.CompanyID), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, "order created", res)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.uc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", o)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	orders, total, err := h.uc.ListOrders(c.Request.Context(), &dto.OrderFilters{
		Status:      c.Query("status"),
		CompanyID:   c.Query("company_id"),
		CreatedBy:   c.Query("created_by"),
		SearchQuery: c.Query("q"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, orders, total)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req struct {
		CompanyID          *string            `json:"company_id"`
		TransportCompanyID *string            `json:"transport_company_id"`
		Notes              *string            `json:"notes"`
		Status             *model.OrderStatus `json:"status"`
		Items              []lineRequest      `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	input := &dto.UpdateOrderInput{
		ID:                 c.Param("id"),
		CompanyID:          req.CompanyID,
		TransportCompanyID: req.TransportCompanyID,
		Notes:              req.Notes,
		Status:             req.Status,
		UserID:             auth.GetUserID(c.Request.Context()),
	}
	if req.Items != nil {
		lines, err := toLines(req.Items)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.Lines = lines
	}

	o, err := h.uc.UpdateOrder(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "order updated", o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	o, err := h.uc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, auth.GetUserID(c.Request.Context()))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "order status updated", o)
}

func (h *OrderHandler) RecordDeliveries(c *gin.Context) {
	var req struct {
		Items []dto.DeliveryLine `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	input := &dto.RecordDeliveriesInput{
		OrderID: c.Param("id"),
		Lines:   req.Items,
		UserID:  auth.GetUserID(c.Request.Context()),
	}
	res, err := h.uc.RecordDeliveries(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("failed to record deliveries", zap.String("order_id", input.OrderID), zap.Error(err))
		response.Error(c, err)
		return
	}
	msg := "deliveries recorded"
	if len(res.Errors) > 0 {
		msg = "some deliveries could not be saved"
	}
	response.Success(c, msg, res)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.uc.DeleteOrder(c.Request.Context(), c.Param("id"), auth.GetUserID(c.Request.Context())); err != nil {
		h.logger.Warn("failed to delete order", zap.String("id", c.Param("id")), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, "order deleted", nil)
}
