package user

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
)

type UseCase interface {
	Signup(ctx context.Context, input *dto.SignupInput) (*model.UserProfile, error)
	CreateUser(ctx context.Context, input *dto.CreateUserInput) (*model.UserProfile, error)
	GetUser(ctx context.Context, id string) (*model.UserProfile, error)
	ListUsers(ctx context.Context, filters *dto.UserFilters) ([]model.UserProfile, int, error)
	UpdateUser(ctx context.Context, input *dto.UpdateUserInput) (*model.UserProfile, error)
	DeleteUser(ctx context.Context, id, actorID string) error
	Activity(ctx context.Context, id string) (*dto.Activity, error)
}
