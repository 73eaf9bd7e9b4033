package auth

import (
	"github.com/google/uuid"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
)

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}
	return id, nil
}
