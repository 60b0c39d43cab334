package user

import (
	"context"

	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/user/dto"
)

type Repository interface {
	Create(ctx context.Context, u *model.UserProfile) error
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	FindAll(ctx context.Context, filters *dto.UserFilters) ([]model.UserProfile, int, error)
	Update(ctx context.Context, u *model.UserProfile) error

	// Delete clears every reference to the user (orders, ledger, audit) and
	// removes the profile in one transaction.
	Delete(ctx context.Context, id string) error

	ListOrdersByCreator(ctx context.Context, userID string, limit int) ([]model.Order, error)
}
