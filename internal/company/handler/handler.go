package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/company"
	"github.com/fekuna/omnipos-erp-service/internal/company/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CompanyHandler struct {
	uc     company.UseCase
	logger logger.ZapLogger
}

func NewCompanyHandler(uc company.UseCase, log logger.ZapLogger) *CompanyHandler {
	return &CompanyHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the CRUD routes under path, e.g. "/companies".
func (h *CompanyHandler) Register(rg *gin.RouterGroup, path string) {
	g := rg.Group(path)
	g.GET("", h.ListCompanies)
	g.POST("", h.CreateCompany)
	g.GET("/:id", h.GetCompany)
	g.PUT("/:id", h.UpdateCompany)
	g.DELETE("/:id", h.DeleteCompany)
}

type companyRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

func (r companyRequest) input(id, userID string) *dto.CompanyInput {
	return &dto.CompanyInput{
		ID:            id,
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
		UserID:        userID,
	}
}

func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	co, err := h.uc.CreateCompany(c.Request.Context(), req.input("", auth.GetUserID(c.Request.Context())))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, string(h.uc.Kind())+" created", co)
}

func (h *CompanyHandler) GetCompany(c *gin.Context) {
	co, err := h.uc.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", co)
}

func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	companies, total, err := h.uc.ListCompanies(c.Request.Context(), &dto.CompanyFilters{
		SearchQuery: c.Query("q"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, companies, total)
}

func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	co, err := h.uc.UpdateCompany(c.Request.Context(), req.input(c.Param("id"), auth.GetUserID(c.Request.Context())))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, string(h.uc.Kind())+" updated", co)
}

func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	if err := h.uc.DeleteCompany(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Warn("failed to delete company", zap.String("id", c.Param("id")), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, string(h.uc.Kind())+" deleted", nil)
}
