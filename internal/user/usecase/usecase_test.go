package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit/audittest"
	auditdto "github.com/fekuna/omnipos-erp-service/internal/audit/dto"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
	"github.com/fekuna/omnipos-erp-service/pkg/apperror"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	mu      sync.Mutex
	users   map[string]model.UserProfile
	orders  []model.Order
	deleted []string
}

func (r *memRepo) Create(_ context.Context, u *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindAll(_ context.Context, f *dto.UserFilters) ([]model.UserProfile, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UserProfile
	for _, u := range r.users {
		if f.Status != "" && string(u.Status) != f.Status {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, u *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memRepo) ListOrdersByCreator(_ context.Context, userID string, _ int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.CreatedBy != nil && *o.CreatedBy == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubAuditLog struct {
	filters *auditdto.AuditFilters
}

func (s *stubAuditLog) ListAuditLogs(_ context.Context, f *auditdto.AuditFilters) ([]model.AuditLog, int, error) {
	s.filters = f
	return []model.AuditLog{{ID: "a-1", Entity: "order"}}, 1, nil
}

func setup(t *testing.T) (*userUseCase, *memRepo, *audittest.Recorder) {
	t.Helper()
	repo := &memRepo{users: map[string]model.UserProfile{}}
	rec := &audittest.Recorder{}
	log := logger.NewNop()
	uc := NewUserUseCase(repo, &stubAuditLog{}, cache.New(time.Minute, log), rec, log).(*userUseCase)
	return uc, repo, rec
}

func seed(repo *memRepo, id string, status model.UserStatus) {
	repo.users[id] = model.UserProfile{ID: id, Email: id + "@example.com", Role: model.RoleStaff, Status: status}
}

func TestSignupCreatesPendingStaff(t *testing.T) {
	uc, _, rec := setup(t)

	u, err := uc.Signup(context.Background(), &dto.SignupInput{Email: "  Ana@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.Equal(t, model.UserStatusPending, u.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, u.ID, entries[0].PerformedBy)
}

func TestSignupValidation(t *testing.T) {
	uc, repo, _ := setup(t)
	seed(repo, "taken", model.UserStatusApproved)

	_, err := uc.Signup(context.Background(), &dto.SignupInput{Email: "", Password: "long-enough"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = uc.Signup(context.Background(), &dto.SignupInput{Email: "a@b.c", Password: "short"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = uc.Signup(context.Background(), &dto.SignupInput{Email: "taken@example.com", Password: "long-enough"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreateUserIsApproved(t *testing.T) {
	uc, _, _ := setup(t)

	u, err := uc.CreateUser(context.Background(), &dto.CreateUserInput{
		Email: "boss@example.com", Password: "long-enough", Role: model.RoleAdmin, ActorID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusApproved, u.Status)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = uc.CreateUser(context.Background(), &dto.CreateUserInput{
		Email: "x@example.com", Password: "long-enough", Role: "root",
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to model.UserStatus
		ok       bool
	}{
		{model.UserStatusPending, model.UserStatusApproved, true},
		{model.UserStatusPending, model.UserStatusRejected, true},
		{model.UserStatusApproved, model.UserStatusDisabled, true},
		{model.UserStatusDisabled, model.UserStatusApproved, true},
		{model.UserStatusRejected, model.UserStatusApproved, true},
		{model.UserStatusPending, model.UserStatusDisabled, false},
		{model.UserStatusApproved, model.UserStatusPending, false},
		{model.UserStatusDisabled, model.UserStatusRejected, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			uc, repo, _ := setup(t)
			seed(repo, "u1", tc.from)

			to := tc.to
			u, err := uc.UpdateUser(context.Background(), &dto.UpdateUserInput{ID: "u1", Status: &to, ActorID: "admin-1"})
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, u.Status)
			} else {
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				assert.Equal(t, tc.from, repo.users["u1"].Status)
			}
		})
	}
}

func TestAdminCannotDisableOrDeleteSelf(t *testing.T) {
	uc, repo, _ := setup(t)
	seed(repo, "admin-1", model.UserStatusApproved)

	disabled := model.UserStatusDisabled
	_, err := uc.UpdateUser(context.Background(), &dto.UpdateUserInput{ID: "admin-1", Status: &disabled, ActorID: "admin-1"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	err = uc.DeleteUser(context.Background(), "admin-1", "admin-1")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	assert.Empty(t, repo.deleted)
}

func TestDeleteUser(t *testing.T) {
	uc, repo, rec := setup(t)
	seed(repo, "u1", model.UserStatusApproved)

	require.NoError(t, uc.DeleteUser(context.Background(), "u1", "admin-1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)
	assert.Equal(t, model.AuditDelete, rec.Entries()[0].EventType)

	err := uc.DeleteUser(context.Background(), "u1", "admin-1")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestListUsersCachedUntilWrite(t *testing.T) {
	uc, repo, _ := setup(t)
	seed(repo, "u1", model.UserStatusPending)

	users, total, err := uc.ListUsers(context.Background(), &dto.UserFilters{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, users, 1)

	approved := model.UserStatusApproved
	_, err = uc.UpdateUser(context.Background(), &dto.UpdateUserInput{ID: "u1", Status: &approved, ActorID: "admin-1"})
	require.NoError(t, err)

	_, total, err = uc.ListUsers(context.Background(), &dto.UserFilters{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, _, err = uc.ListUsers(context.Background(), &dto.UserFilters{Status: "sleeping"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestActivity(t *testing.T) {
	uc, repo, _ := setup(t)
	seed(repo, "u1", model.UserStatusApproved)
	creator := "u1"
	repo.orders = []model.Order{
		{BaseModel: model.BaseModel{ID: "o1"}, CreatedBy: &creator},
		{BaseModel: model.BaseModel{ID: "o2"}},
	}

	a, err := uc.Activity(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.User.ID)
	require.Len(t, a.Orders, 1)
	assert.Equal(t, "o1", a.Orders[0].ID)
	assert.Len(t, a.AuditLogs, 1)
	assert.Equal(t, "u1", uc.auditLog.(*stubAuditLog).filters.PerformedBy)
}
