package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/phrazzld/txspec/internal/store"
)

var violationCodes = map[sqlite3.ErrNoExtended]store.Violation{
	sqlite3.ErrConstraintUnique:     store.UniqueViolation,
	sqlite3.ErrConstraintPrimaryKey: store.UniqueViolation,
	sqlite3.ErrConstraintForeignKey: store.ForeignKeyViolation,
	sqlite3.ErrConstraintCheck:      store.CheckViolation,
	sqlite3.ErrConstraintNotNull:    store.NotNullViolation,
}

// Classify reports which constraint err violated, looking through wrapping.
// Foreign key failures are only raised on connections opened with foreign
// keys enabled.
func Classify(err error) store.Violation {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return store.NoViolation
	}
	return violationCodes[sqliteErr.ExtendedCode]
}

// MapError maps a SQLite error to the store error taxonomy. The original
// error stays in the chain; unrecognized errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}
	// SQLite names the columns in the message, not in separate fields.
	return store.MapViolation(Classify(err), "", err)
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	return Classify(err) == store.UniqueViolation
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	return Classify(err) == store.ForeignKeyViolation
}
