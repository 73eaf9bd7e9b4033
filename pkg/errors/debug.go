package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGDetails carries the driver-level Postgres fields worth logging when a
// request fails on a database error.
type PGDetails struct {
	Code       string
	Message    string
	Detail     string
	Table      string
	Constraint string
}

// ErrorDump is the loggable view of an error: the typed code if present, the
// full unwrap chain, and Postgres details when a driver error is in the chain.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string
	PG         *PGDetails
}

// Dump flattens err for structured logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	dump := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		dump.Chain = append(dump.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	dump.PG = pgDetails(err)
	return dump
}

// pgDetails checks both drivers: gorm surfaces pgx errors while the migration
// path goes through pq.
func pgDetails(err error) *PGDetails {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return &PGDetails{
			Code:       pgxErr.Code,
			Message:    pgxErr.Message,
			Detail:     pgxErr.Detail,
			Table:      pgxErr.TableName,
			Constraint: pgxErr.ConstraintName,
		}
	}

	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return &PGDetails{
			Code:       string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Table:      pqErr.Table,
			Constraint: pqErr.Constraint,
		}
	}
	return nil
}
