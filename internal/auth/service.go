package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	user "github.com/marketloop/marketloop-backend/internal/users"
	pkgAuth "github.com/marketloop/marketloop-backend/pkg/auth"
	"github.com/marketloop/marketloop-backend/pkg/config"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/security"
)

// RegisterInput is the validated payload to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// LoginInput carries credentials. Identity accepts a username or an email.
type LoginInput struct {
	Identity string
	Password string
}

// Session bundles the authenticated user with a freshly minted token.
type Session struct {
	User  *user.UserDTO `json:"user"`
	Token string        `json:"token"`
}

// Service exposes account lifecycle operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	ChangePassword(ctx context.Context, userID string, oldPassword, newPassword string) error
}

type service struct {
	repo        *user.Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs the auth service.
func NewService(repo *user.Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

// Register creates the account and returns a signed-in session.
func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	username := strings.TrimSpace(input.Username)
	// Emails are stored as submitted; uniqueness is a byte-exact match, while
	// login lookup stays case-insensitive.
	email := strings.TrimSpace(input.Email)

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already exists")
	} else if !user.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already exists")
	} else if !user.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}

	salt, hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	row := &models.User{
		Username:     username,
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Salt:         salt,
		PasswordHash: hash,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		// Concurrent registration can slip past the existence checks and land
		// on the unique index instead.
		if db.IsUniqueViolation(err, "username") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already exists")
		}
		if db.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return s.sessionFor(created)
}

// Login verifies credentials and returns a session. Lookup failures and bad
// passwords collapse into the same error so identities cannot be probed.
func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	identity := strings.TrimSpace(input.Identity)

	row, err := s.repo.FindByLogin(ctx, identity)
	if err != nil {
		if user.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCreds, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(input.Password, row.Salt, row.PasswordHash, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCreds, "invalid credentials")
	}

	return s.sessionFor(row)
}

// ChangePassword re-derives the hash under the user's existing salt.
func (s *service) ChangePassword(ctx context.Context, userID string, oldPassword, newPassword string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if user.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	ok, err := security.VerifyPassword(oldPassword, row.Salt, row.PasswordHash, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidCreds, "invalid credentials")
	}

	hash, err := security.HashWithSalt(newPassword, row.Salt, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	row.PasswordHash = hash
	if _, err := s.repo.Update(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) sessionFor(row *models.User) (*Session, error) {
	token, err := pkgAuth.MintSessionToken(s.jwtCfg, s.now(), pkgAuth.SessionTokenPayload{UserID: row.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &Session{User: user.ToDTO(row), Token: token}, nil
}
