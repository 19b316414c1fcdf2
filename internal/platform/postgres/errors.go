package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/txspec/internal/store"
)

// SQLSTATE class 23 (integrity constraint violation) codes the harness
// distinguishes.
var violationCodes = map[string]store.Violation{
	"23505": store.UniqueViolation,
	"23503": store.ForeignKeyViolation,
	"23514": store.CheckViolation,
	"23502": store.NotNullViolation,
}

// Classify reports which constraint err violated, looking through wrapping.
func Classify(err error) store.Violation {
	v, _ := classify(err)
	return v
}

// classify also returns the constraint name, or the column for NOT NULL.
func classify(err error) (store.Violation, string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return store.NoViolation, ""
	}
	v, ok := violationCodes[pgErr.Code]
	if !ok {
		return store.NoViolation, ""
	}
	if v == store.NotNullViolation {
		return v, pgErr.ColumnName
	}
	return v, pgErr.ConstraintName
}

// MapError maps a pgx error to the store error taxonomy. The original error
// stays in the chain; unrecognized errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}
	v, detail := classify(err)
	return store.MapViolation(v, detail, err)
}

// IsUniqueViolation reports whether err is SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	return Classify(err) == store.UniqueViolation
}

// IsForeignKeyViolation reports whether err is SQLSTATE 23503. Cleanup in the
// wrong order surfaces as this error.
func IsForeignKeyViolation(err error) bool {
	return Classify(err) == store.ForeignKeyViolation
}
