package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// PostgreSQL SQLSTATE codes recognized by the mapper.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringDataTooLong   = "22001"
	pgNumericOutOfRange   = "22003"
	pgInvalidTextRepr     = "22P02"
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
)

// MapError normalizes any storage-layer failure into the application error
// taxonomy. It is idempotent: an error already classified as *domain.AppError
// passes through unchanged, which lets domain errors raised inside a
// transaction survive the transaction machinery.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if appErr, ok := domain.AsAppError(err); ok {
		return appErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound("Record not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.Internal(domain.CodeDBInit, "failed to initialize database connection")
	}

	var httpErr *domain.HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		message := httpErr.Message
		if message == "" {
			message = "HTTP request failed"
		}
		return domain.NewAppError(domain.CodeHTTPRequest, message, status).WithMeta(map[string]any{
			"method": httpErr.Method,
			"url":    httpErr.URL,
			"status": httpErr.Status,
		})
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Internal(domain.CodeDBUnknown, "database operation timed out")
	}

	return domain.Internal(domain.CodeUnknown, sanitizeMessage(err.Error()))
}

func mapPgError(pgErr *pgconn.PgError) *domain.AppError {
	switch pgErr.Code {
	case pgUniqueViolation:
		return domain.Conflict(domain.CodeDuplicateKey,
			fmt.Sprintf("Duplicate value for field(s): %s", constraintFields(pgErr)))
	case pgForeignKeyViolation:
		return domain.Conflict(domain.CodeForeignKey,
			fmt.Sprintf("Invalid relation or foreign key: %s", constraintFields(pgErr)))
	case pgStringDataTooLong:
		return domain.NewAppError(domain.CodeValueTooLong,
			"Value too long for column", http.StatusUnprocessableEntity)
	case pgNumericOutOfRange:
		return domain.NewAppError(domain.CodeNumberOutOfRange,
			"Number out of range for the column type", http.StatusUnprocessableEntity)
	case pgUndefinedTable, pgUndefinedColumn:
		return domain.Internal(domain.CodeSchemaMismatch,
			"Database schema mismatch (missing table/column). Did you run migrations?")
	case pgInvalidTextRepr, pgNotNullViolation, pgCheckViolation:
		return domain.Validation("Invalid data sent to database").
			WithMeta(map[string]any{"detail": sanitizeMessage(pgErr.Message)})
	default:
		if strings.HasPrefix(pgErr.Code, "08") { // connection exception class
			return domain.Internal(domain.CodeDBInit, "failed to initialize database connection")
		}
		return domain.Internal(domain.CodeDBUnknown, sanitizeMessage(pgErr.Message))
	}
}

// constraintFields extracts the offending column(s) from a constraint
// violation, falling back to the constraint name.
func constraintFields(pgErr *pgconn.PgError) string {
	if fields := detailKeys(pgErr.Detail); fields != "" {
		return fields
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return "unknown"
}

// detailRe matches the column list in constraint violation detail messages,
// e.g. `Key (email)=(a@b.com) already exists.`.
var detailRe = regexp.MustCompile(`Key \(([^)]+)\)=`)

func detailKeys(detail string) string {
	m := detailRe.FindStringSubmatch(detail)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// sanitizeMessage strips SQL positional noise and collapses whitespace so no
// internal statement fragments are echoed to the caller.
func sanitizeMessage(msg string) string {
	if i := strings.Index(msg, "(SQLSTATE"); i > 0 {
		msg = msg[:i]
	}
	if i := strings.Index(msg, " at character "); i > 0 {
		msg = msg[:i]
	}
	return strings.Join(strings.Fields(msg), " ")
}
