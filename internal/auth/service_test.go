package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	user "github.com/marketloop/marketloop-backend/internal/users"
	pkgAuth "github.com/marketloop/marketloop-backend/pkg/auth"
	"github.com/marketloop/marketloop-backend/pkg/config"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		salt TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		avatar TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	return conn
}

func newTestService(t *testing.T) (Service, *user.Repository) {
	t.Helper()

	repo := user.NewRepository(newTestDB(t))
	svc, err := NewService(repo, testJWTConfig(), testPasswordConfig())
	require.NoError(t, err)
	return svc, repo
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "marketloop-test"}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		PBKDF2Iterations: 1000,
		PBKDF2SaltLen:    32,
		PBKDF2KeyLen:     64,
	}
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	return typed.Code()
}

func TestRegisterReturnsSignedInSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, "alice", session.User.Username)
	assert.NotEqual(t, uuid.Nil, session.User.ID)

	claims, err := pkgAuth.ParseSessionToken(testJWTConfig(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
}

func TestRegisterStoresEmailAsSubmitted(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Username: "bob",
		Email:    "  Bob@Example.COM ",
		Name:     "Bob",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob@Example.COM", session.User.Email)
}

func TestRegisterEmailUniquenessIsCaseSensitive(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice1", Email: "alice@example.com", Name: "Alice", Password: "password-one"})
	require.NoError(t, err)

	// An email differing only in case is a distinct identity at registration.
	session, err := svc.Register(ctx, RegisterInput{Username: "alice2", Email: "ALICE@example.com", Name: "Alice Too", Password: "password-two"})
	require.NoError(t, err)
	assert.Equal(t, "ALICE@example.com", session.User.Email)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Name: "Carol", Password: "password-one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "other@example.com", Name: "Carol Two", Password: "password-two"})
	assert.Equal(t, pkgerrors.CodeDuplicateUsername, errCode(t, err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Name: "Dave", Password: "password-one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "dave2", Email: "dave@example.com", Name: "Dave Two", Password: "password-two"})
	assert.Equal(t, pkgerrors.CodeDuplicateEmail, errCode(t, err))
}

func TestLoginAcceptsUsernameOrEmailCaseInsensitively(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "Erin", Email: "erin@example.com", Name: "Erin", Password: "open-sesame-1"})
	require.NoError(t, err)

	for _, identity := range []string{"Erin", "erin", "ERIN", "erin@example.com", "ERIN@EXAMPLE.COM"} {
		session, err := svc.Login(ctx, LoginInput{Identity: identity, Password: "open-sesame-1"})
		require.NoError(t, err, "identity %q should log in", identity)
		assert.Equal(t, "Erin", session.User.Username)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "frank", Email: "frank@example.com", Name: "Frank", Password: "right-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Identity: "frank", Password: "wrong-password"})
	assert.Equal(t, pkgerrors.CodeInvalidCreds, errCode(t, err))

	// Unknown identities answer the same way so accounts cannot be probed.
	_, err = svc.Login(ctx, LoginInput{Identity: "nobody", Password: "whatever-pass"})
	assert.Equal(t, pkgerrors.CodeInvalidCreds, errCode(t, err))
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Username: "grace", Email: "grace@example.com", Name: "Grace", Password: "old-password"})
	require.NoError(t, err)

	before, err := repo.FindByID(ctx, session.User.ID)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, session.User.ID.String(), "not-the-old-one", "new-password")
	assert.Equal(t, pkgerrors.CodeInvalidCreds, errCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID.String(), "old-password", "new-password"))

	after, err := repo.FindByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Salt, after.Salt)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	_, err = svc.Login(ctx, LoginInput{Identity: "grace", Password: "old-password"})
	assert.Equal(t, pkgerrors.CodeInvalidCreds, errCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Identity: "grace", Password: "new-password"})
	assert.NoError(t, err)
}

func TestChangePasswordRejectsMalformedSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	err := svc.ChangePassword(context.Background(), "not-a-uuid", "old", "new")
	assert.Equal(t, pkgerrors.CodeUnauthorized, errCode(t, err))
}
