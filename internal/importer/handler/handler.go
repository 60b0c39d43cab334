package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/importer"
	"github.com/fekuna/omnipos-erp-service/internal/importer/sheet"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ImportHandler struct {
	uc             importer.UseCase
	maxUploadBytes int64
	logger         logger.ZapLogger
}

func NewImportHandler(uc importer.UseCase, maxUploadBytes int64, log logger.ZapLogger) *ImportHandler {
	return &ImportHandler{
		uc:             uc,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

func (h *ImportHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/import/:entity", h.Import)
	rg.GET("/export/:entity", h.Export)
}

func (h *ImportHandler) Import(c *gin.Context) {
	entity := importer.Entity(c.Param("entity"))
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	defer f.Close()

	res, err := h.uc.Import(c.Request.Context(), entity, fh.Filename, f, auth.GetUserID(c.Request.Context()))
	if err != nil {
		h.logger.Warn("import rejected", zap.String("entity", string(entity)), zap.String("file", fh.Filename), zap.Error(err))
		response.Error(c, err)
		return
	}

	msg := "import finished"
	if res.Failed > 0 {
		msg = fmt.Sprintf("import finished with %d failed rows", res.Failed)
	}
	response.Success(c, msg, res)
}

func (h *ImportHandler) Export(c *gin.Context) {
	entity := importer.Entity(c.Param("entity"))
	format := sheet.Format(c.DefaultQuery("format", string(sheet.FormatCSV)))

	contentType := "text/csv"
	switch format {
	case sheet.FormatCSV:
	case sheet.FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		response.Error(c, apperror.Validation("import.unsupported_format", "format=%q", format))
		return
	}
	if !entity.Valid() {
		response.Error(c, apperror.Validation("import.unsupported_entity", "entity=%q", entity))
		return
	}

	var buf bytes.Buffer
	if err := h.uc.Export(c.Request.Context(), entity, format, &buf); err != nil {
		h.logger.Error("export failed", zap.String("entity", string(entity)), zap.Error(err))
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", entity, time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
