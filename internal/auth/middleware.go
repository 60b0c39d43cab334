package auth

import (
	"strings"

	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
)

const GinUserKey = "auth_user"

func Middleware(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, apperror.New(apperror.KindUnauthorized, "auth.missing_token", ""))
			return
		}

		claims, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, apperror.Wrap(apperror.KindUnauthorized, "auth.invalid_token", err))
			return
		}

		u := UserContext{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}
		c.Set(GinUserKey, u)
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), u))
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := FromContext(c.Request.Context())
		if !ok || !u.IsAdmin() {
			response.Error(c, apperror.Forbidden("auth.admin_only", ""))
			return
		}
		c.Next()
	}
}
