package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpNilError(t *testing.T) {
	t.Parallel()

	dump := Dump(nil)
	assert.Empty(t, dump.TopMessage)
	assert.Nil(t, dump.Chain)
	assert.Nil(t, dump.PG)
}

func TestDumpCapturesCodeAndChain(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("driver says no")
	err := Wrap(CodeInternal, cause, "create user")

	dump := Dump(err)
	assert.Equal(t, CodeInternal, dump.Code)
	require.Len(t, dump.Chain, 2)
	assert.Contains(t, dump.Chain[1], "driver says no")
	assert.Nil(t, dump.PG)
}

func TestDumpExtractsPgxError(t *testing.T) {
	t.Parallel()

	cause := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		Detail:         "Key (username)=(alice) already exists.",
		TableName:      "users",
		ConstraintName: "idx_users_username",
	}
	err := Wrap(CodeInternal, fmt.Errorf("create user: %w", cause), "register")

	dump := Dump(err)
	require.NotNil(t, dump.PG)
	assert.Equal(t, "23505", dump.PG.Code)
	assert.Equal(t, "users", dump.PG.Table)
	assert.Equal(t, "idx_users_username", dump.PG.Constraint)
}

func TestDumpExtractsPqError(t *testing.T) {
	t.Parallel()

	cause := &pq.Error{
		Code:       "23505",
		Message:    "duplicate key value violates unique constraint",
		Table:      "users",
		Constraint: "idx_users_email",
	}
	err := fmt.Errorf("migrate: %w", cause)

	dump := Dump(err)
	require.NotNil(t, dump.PG)
	assert.Equal(t, "23505", dump.PG.Code)
	assert.Equal(t, "idx_users_email", dump.PG.Constraint)
}
