package dto

import "github.com/fekuna/omnipos-erp-service/internal/model"

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// CreateUserInput is the admin path; the profile starts approved.
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     model.UserRole
	ActorID  string
}

type UpdateUserInput struct {
	ID      string
	Role    *model.UserRole
	Status  *model.UserStatus
	ActorID string
}
