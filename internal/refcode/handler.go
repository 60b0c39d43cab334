package refcode

import (
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	gen *Generator
}

func NewHandler(gen *Generator) *Handler {
	return &Handler{gen: gen}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/reference-codes", h.Generate)
}

func (h *Handler) Generate(c *gin.Context) {
	var req struct {
		Prefix string `json:"prefix"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	code, err := h.gen.Generate(c.Request.Context(), req.Prefix)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "reference code generated", gin.H{"code": code})
}
