package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	pkgAuth "github.com/marketloop/marketloop-backend/pkg/auth"
	"github.com/marketloop/marketloop-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "marketloop-test"}
}

func authEcho(t *testing.T) (http.Handler, *string) {
	t.Helper()

	var seenUserID string
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return handler, &seenUserID
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := pkgAuth.MintSessionToken(testJWTConfig(), time.Now(), pkgAuth.SessionTokenPayload{UserID: userID})
	require.NoError(t, err)

	handler, seenUserID := authEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), *seenUserID)
}

func TestAuthRejectsSchemelessHeader(t *testing.T) {
	t.Parallel()

	token, err := pkgAuth.MintSessionToken(testJWTConfig(), time.Now(), pkgAuth.SessionTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	handler, _ := authEcho(t)

	// A valid token without the Bearer scheme is not accepted.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSchemeIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	token, err := pkgAuth.MintSessionToken(testJWTConfig(), time.Now(), pkgAuth.SessionTokenPayload{UserID: userID})
	require.NoError(t, err)

	handler, seenUserID := authEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), *seenUserID)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	handler, _ := authEcho(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthRejectsEmptyBearer(t *testing.T) {
	t.Parallel()

	handler, _ := authEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer   ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsForgedToken(t *testing.T) {
	t.Parallel()

	forged, err := pkgAuth.MintSessionToken(config.JWTConfig{Secret: "other-secret", Issuer: "marketloop-test"}, time.Now(), pkgAuth.SessionTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	handler, _ := authEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
