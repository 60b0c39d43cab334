package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	uc     user.UseCase
	logger logger.ZapLogger
}

func NewUserHandler(uc user.UseCase, log logger.ZapLogger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *UserHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.Signup)
}

// RegisterAdmin expects rg to already require an admin token.
func (h *UserHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/admin/users/create", h.CreateUser)
	rg.DELETE("/admin/users/:id/delete", h.DeleteUserByPath)

	rg.GET("/users", h.ListUsers)
	rg.PATCH("/users", h.UpdateUser)
	rg.DELETE("/users", h.DeleteUserByQuery)
	rg.GET("/users/:id/activity", h.Activity)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	u, err := h.uc.Signup(c.Request.Context(), &dto.SignupInput{Email: req.Email, Password: req.Password, FullName: req.FullName})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "signup received, waiting for approval", u)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		credentials
		Role model.UserRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), &dto.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		ActorID:  auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		h.logger.Warn("failed to create user", zap.String("email", req.Email), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, "user created", u)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	users, total, err := h.uc.ListUsers(c.Request.Context(), &dto.UserFilters{
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users, total)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req struct {
		ID     string            `json:"id"`
		Role   *model.UserRole   `json:"role"`
		Status *model.UserStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if req.ID == "" {
		response.Error(c, apperror.Validation("common.invalid_payload", "id is empty"))
		return
	}

	u, err := h.uc.UpdateUser(c.Request.Context(), &dto.UpdateUserInput{
		ID:      req.ID,
		Role:    req.Role,
		Status:  req.Status,
		ActorID: auth.GetUserID(c.Request.Context()),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "user updated", u)
}

func (h *UserHandler) DeleteUserByPath(c *gin.Context) {
	h.deleteUser(c, c.Param("id"))
}

func (h *UserHandler) DeleteUserByQuery(c *gin.Context) {
	h.deleteUser(c, c.Query("id"))
}

func (h *UserHandler) deleteUser(c *gin.Context, id string) {
	if id == "" {
		response.Error(c, apperror.Validation("common.invalid_payload", "id is empty"))
		return
	}
	if err := h.uc.DeleteUser(c.Request.Context(), id, auth.GetUserID(c.Request.Context())); err != nil {
		h.logger.Warn("failed to delete user", zap.String("id", id), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, "user deleted", nil)
}

func (h *UserHandler) Activity(c *gin.Context) {
	a, err := h.uc.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", a)
}
