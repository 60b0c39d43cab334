package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/i18n"
	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"data":    data,
	})
}

func List(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": total,
	})
}

// Error writes {"error": <localized message>, "code": <message id>} with a
// status derived from the error kind.
func Error(c *gin.Context, err error) {
	status, messageID, data := classify(err)
	lang := c.GetHeader("Accept-Language")
	c.AbortWithStatusJSON(status, gin.H{
		"error": i18n.Translate(lang, messageID, data),
		"code":  messageID,
	})
}

// BadRequest is used for payload binding failures.
func BadRequest(c *gin.Context, err error) {
	lang := c.GetHeader("Accept-Language")
	body := gin.H{
		"error": i18n.Translate(lang, "common.invalid_payload", nil),
		"code":  "common.invalid_payload",
	}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func classify(err error) (int, string, map[string]interface{}) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "common.timeout", nil
	}

	var ae *apperror.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, "common.internal", nil
	}

	switch ae.Kind {
	case apperror.KindValidation:
		return http.StatusBadRequest, ae.MessageID, ae.Data
	case apperror.KindNotFound:
		return http.StatusNotFound, ae.MessageID, ae.Data
	case apperror.KindConflict, apperror.KindReferenced:
		return http.StatusConflict, ae.MessageID, ae.Data
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized, ae.MessageID, ae.Data
	case apperror.KindForbidden:
		return http.StatusForbidden, ae.MessageID, ae.Data
	case apperror.KindTimeout:
		return http.StatusGatewayTimeout, ae.MessageID, ae.Data
	default:
		return http.StatusInternalServerError, "common.internal", nil
	}
}
