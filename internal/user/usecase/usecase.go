package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	auditdto "github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	activityLimit  = 50
)

// transitions lists the statuses an admin may move a user to from each status.
var transitions = map[model.UserStatus][]model.UserStatus{
	model.UserStatusPending:  {model.UserStatusApproved, model.UserStatusRejected},
	model.UserStatusApproved: {model.UserStatusDisabled},
	model.UserStatusDisabled: {model.UserStatusApproved},
	model.UserStatusRejected: {model.UserStatusApproved},
}

func canTransition(from, to model.UserStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type userUseCase struct {
	repo     user.Repository
	auditLog audit.UseCase
	cache    *cache.Cache
	audit    audit.Recorder
	logger   logger.ZapLogger
}

func NewUserUseCase(repo user.Repository, auditLog audit.UseCase, c *cache.Cache, rec audit.Recorder, log logger.ZapLogger) user.UseCase {
	return &userUseCase{
		repo:     repo,
		auditLog: auditLog,
		cache:    c,
		audit:    rec,
		logger:   log,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *userUseCase) Signup(ctx context.Context, input *dto.SignupInput) (*model.UserProfile, error) {
	return uc.create(ctx, input.Email, input.Password, input.FullName, model.RoleStaff, model.UserStatusPending, "")
}

func (uc *userUseCase) CreateUser(ctx context.Context, input *dto.CreateUserInput) (*model.UserProfile, error) {
	role := input.Role
	if role == "" {
		role = model.RoleStaff
	}
	if !role.Valid() {
		return nil, apperror.Validation("user.invalid_role", "role=%q", role)
	}
	return uc.create(ctx, input.Email, input.Password, input.FullName, role, model.UserStatusApproved, input.ActorID)
}

func (uc *userUseCase) create(ctx context.Context, email, password, fullName string, role model.UserRole, status model.UserStatus, actorID string) (*model.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.Validation("user.email_required", "email is empty")
	}
	if len(password) < minPasswordLen {
		return nil, apperror.Validation("user.password_too_short", "len=%d", len(password))
	}

	existing, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("user.email_exists", "email=%s", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	u := &model.UserProfile{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     optional(fullName),
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if actorID == "" {
		actorID = u.ID
	}
	uc.logger.Info("user created", zap.String("id", u.ID), zap.String("role", string(role)), zap.String("status", string(status)))
	uc.afterWrite(ctx, model.AuditCreate, u, actorID)
	return u, nil
}

func (uc *userUseCase) GetUser(ctx context.Context, id string) (*model.UserProfile, error) {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("user.not_found", "id=%s", id)
	}
	return u, nil
}

type page struct {
	Users []model.UserProfile
	Count int
}

func (uc *userUseCase) ListUsers(ctx context.Context, filters *dto.UserFilters) ([]model.UserProfile, int, error) {
	if filters.Role != "" && !model.UserRole(filters.Role).Valid() {
		return nil, 0, apperror.Validation("user.invalid_role", "role=%q", filters.Role)
	}
	if filters.Status != "" && !model.UserStatus(filters.Status).Valid() {
		return nil, 0, apperror.Validation("user.invalid_status", "status=%q", filters.Status)
	}

	key, _ := json.Marshal(filters)
	p, err := cache.Load(ctx, uc.cache, cache.EntityUsers, fmt.Sprintf("%x", md5.Sum(key)), func(ctx context.Context) (page, error) {
		users, count, err := uc.repo.FindAll(ctx, filters)
		return page{Users: users, Count: count}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.Users, p.Count, nil
}

func (uc *userUseCase) UpdateUser(ctx context.Context, input *dto.UpdateUserInput) (*model.UserProfile, error) {
	u, err := uc.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperror.Validation("user.invalid_role", "role=%q", *input.Role)
		}
		u.Role = *input.Role
	}

	if input.Status != nil {
		to := *input.Status
		if !to.Valid() {
			return nil, apperror.Validation("user.invalid_status", "status=%q", to)
		}
		if !canTransition(u.Status, to) {
			return nil, apperror.Validation("user.invalid_transition", "%s -> %s", u.Status, to).
				WithData(map[string]interface{}{"From": string(u.Status), "To": string(to)})
		}
		if to == model.UserStatusDisabled && input.ID == input.ActorID {
			return nil, apperror.Forbidden("user.self_action", "cannot disable own account")
		}
		u.Status = to
	}

	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, model.AuditUpdate, u, input.ActorID)
	return u, nil
}

func (uc *userUseCase) DeleteUser(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return apperror.Forbidden("user.self_action", "cannot delete own account")
	}
	u, err := uc.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.logger.Info("user deleted", zap.String("id", id), zap.String("by", actorID))
	// Nullified created_by/performed_by columns show up in orders and audit lists.
	uc.cache.Invalidate(ctx, cache.EntityOrders, cache.EntityAuditLogs)
	uc.afterWrite(ctx, model.AuditDelete, u, actorID)
	return nil
}

func (uc *userUseCase) Activity(ctx context.Context, id string) (*dto.Activity, error) {
	u, err := uc.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	logs, _, err := uc.auditLog.ListAuditLogs(ctx, &auditdto.AuditFilters{PerformedBy: id, Page: 1, PageSize: activityLimit})
	if err != nil {
		return nil, err
	}
	orders, err := uc.repo.ListOrdersByCreator(ctx, id, activityLimit)
	if err != nil {
		return nil, err
	}
	return &dto.Activity{User: u, AuditLogs: logs, Orders: orders}, nil
}

func (uc *userUseCase) afterWrite(ctx context.Context, event model.AuditEvent, u *model.UserProfile, actorID string) {
	uc.cache.Invalidate(ctx, cache.EntityUsers)
	uc.audit.Record(ctx, audit.Entry{
		EventType:   event,
		Entity:      "user",
		EntityID:    u.ID,
		PerformedBy: actorID,
		Payload:     map[string]interface{}{"email": u.Email, "role": u.Role, "status": u.Status},
	})
}
