package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeLimiterStore counts increments in memory, ignoring the TTL.
type fakeLimiterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: make(map[string]int64)}
}

func (f *fakeLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func limitedHandler(policy AuthRateLimitPolicy, store *fakeLimiterStore) http.Handler {
	return AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func postLogin(handler http.Handler, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitPerIP(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	handler := limitedHandler(NewAuthRateLimitPolicy("login", time.Minute, 3, 0), store)

	for i := 0; i < 3; i++ {
		rec := postLogin(handler, "198.51.100.7", `{}`)
		assert.Equal(t, http.StatusOK, rec.Code, "attempt %d should pass", i+1)
	}

	rec := postLogin(handler, "198.51.100.7", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// A different source address is counted separately.
	rec = postLogin(handler, "198.51.100.8", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitPerIdentity(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	handler := limitedHandler(NewAuthRateLimitPolicy("login", time.Minute, 0, 2), store)

	body := `{"username_or_email":"Alice@Example.com","password":"x"}`
	for i := 0; i < 2; i++ {
		rec := postLogin(handler, "203.0.113.1", body)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// Case and spacing variants of the identity share the same counter, and
	// the source address does not matter.
	rec := postLogin(handler, "203.0.113.99", `{"username_or_email":"  alice@example.com ","password":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = postLogin(handler, "203.0.113.1", `{"username_or_email":"bob","password":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitIdentityFieldFallbacks(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	handler := limitedHandler(NewAuthRateLimitPolicy("register", time.Minute, 0, 1), store)

	rec := postLogin(handler, "203.0.113.2", `{"username":"carol","email":"carol@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The username takes precedence over the email for the counter key.
	rec = postLogin(handler, "203.0.113.2", `{"username":"carol","email":"different@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthRateLimitBodyStaysReadable(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	var seenBody string
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 5), store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			seenBody = string(data)
			w.WriteHeader(http.StatusOK)
		}))

	body := `{"username_or_email":"dave","password":"secret"}`
	rec := postLogin(handler, "203.0.113.3", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, seenBody)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	handler := limitedHandler(NewAuthRateLimitPolicy("login", 0, 100, 100), store)

	for i := 0; i < 5; i++ {
		rec := postLogin(handler, "203.0.113.4", `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, store.counts)
}

func TestAuthRateLimitHonorsForwardedFor(t *testing.T) {
	t.Parallel()

	store := newFakeLimiterStore()
	handler := limitedHandler(NewAuthRateLimitPolicy("login", time.Minute, 1, 0), store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	req.Header.Set("X-Forwarded-For", "192.0.2.10")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
