package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/api/middleware"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// formValue returns the trimmed form field, empty when absent.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// formValuePtr returns a pointer to the trimmed field, nil when the field was
// not submitted at all.
func formValuePtr(r *http.Request, key string) *string {
	if r.Form == nil {
		return nil
	}
	values, ok := r.Form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])
	return &v
}

// formFile returns the named upload, or nils when the part is absent.
func formFile(r *http.Request, key string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(key)
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload")
	}
	return file, header, nil
}

// formUUIDList parses repeated values and comma-separated lists into uuids.
func formUUIDList(r *http.Request, key string) ([]uuid.UUID, error) {
	if r.Form == nil {
		return nil, nil
	}
	var out []uuid.UUID
	for _, raw := range r.Form[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid in list").
					WithDetails(map[string]any{"field": key, "value": part})
			}
			out = append(out, id)
		}
	}
	return out, nil
}
