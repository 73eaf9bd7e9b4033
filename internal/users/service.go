package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
)

// UpdateProfileInput holds optional profile mutations.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Name     *string
}

// Service exposes user profile operations.
type Service interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	ListUsers(ctx context.Context, params pagination.Params) ([]UserDTO, error)
	UpdateProfile(ctx context.Context, actorID, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	UpdateAvatar(ctx context.Context, actorID, id uuid.UUID, avatarPath string) (*UserDTO, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs a user service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return ToDTO(user), nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) ([]UserDTO, error) {
	users, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return ToDTOs(users), nil
}

// UpdateProfile applies partial changes to the caller's own account.
func (s *service) UpdateProfile(ctx context.Context, actorID, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.ownAccount(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if taken, err := s.identityTaken(ctx, id, "username", *input.Username); err != nil {
			return nil, err
		} else if taken {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already exists")
		}
		user.Username = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		if taken, err := s.identityTaken(ctx, id, "email", *input.Email); err != nil {
			return nil, err
		} else if taken {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already exists")
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return ToDTO(updated), nil
}

func (s *service) UpdateAvatar(ctx context.Context, actorID, id uuid.UUID, avatarPath string) (*UserDTO, error) {
	user, err := s.ownAccount(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	user.Avatar = &avatarPath
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update avatar")
	}
	return ToDTO(updated), nil
}

// DeleteUser removes the caller's own account. Deleting anyone else is
// forbidden.
func (s *service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.ownAccount(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

func (s *service) ownAccount(ctx context.Context, actorID, id uuid.UUID) (*models.User, error) {
	if actorID != id {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot modify another user")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) identityTaken(ctx context.Context, selfID uuid.UUID, field, value string) (bool, error) {
	var existing *models.User
	var err error
	switch field {
	case "username":
		existing, err = s.repo.FindByUsername(ctx, value)
	default:
		existing, err = s.repo.FindByEmail(ctx, value)
	}
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check identity")
	}
	return existing.ID != selfID, nil
}
