package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := errors.New(`pq: duplicate key value violates unique constraint "idx_users_username"`)
	assert.True(t, IsUniqueViolation(pgErr, "username"))
	assert.False(t, IsUniqueViolation(pgErr, "email"))

	sqliteErr := errors.New("UNIQUE constraint failed: users.email")
	assert.True(t, IsUniqueViolation(sqliteErr, "email"))

	assert.True(t, IsUniqueViolation(pgErr, ""))
	assert.True(t, IsUniqueViolation(sqliteErr, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, "username"))
}
