package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity violates a constraint,
	// including referential integrity. Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrBeginFailed is returned when a transaction could not be opened.
	// The harness reports it as a test error; it never skips or retries.
	ErrBeginFailed = errors.New("failed to begin transaction")

	// ErrRollbackFailed is returned when one or more transactions could not
	// be rolled back. Isolation is not guaranteed after this error.
	ErrRollbackFailed = errors.New("failed to roll back transaction")

	// ErrCyclicDependency is returned when tables reference each other in a
	// cycle and no generic delete order exists.
	ErrCyclicDependency = errors.New("cyclic foreign key dependency")

	// ErrArtistNotFound indicates that the requested artist does not exist.
	ErrArtistNotFound = fmt.Errorf("%w: artist", ErrNotFound)

	// ErrAlbumNotFound indicates that the requested album does not exist.
	ErrAlbumNotFound = fmt.Errorf("%w: album", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "artist", "album")
	Operation string // The operation that failed (e.g., "create", "delete")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CheckRowsAffected checks if a SQL operation affected any rows.
// It returns ErrNotFound if no rows were affected, or nil if at least one row was affected.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if entityName == "" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s not found", ErrNotFound, entityName)
	}

	return nil
}

// Violation classifies a constraint failure reported by a driver.
type Violation int

// Constraint failure kinds.
const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
	CheckViolation
	NotNullViolation
)

func (v Violation) String() string {
	switch v {
	case UniqueViolation:
		return "unique violation"
	case ForeignKeyViolation:
		return "foreign key violation"
	case CheckViolation:
		return "check constraint violation"
	case NotNullViolation:
		return "not null violation"
	default:
		return "no violation"
	}
}

// MapViolation wraps err in the store error for v: ErrDuplicate for unique
// violations, ErrInvalidEntity for the rest. detail names the constraint or
// column when the driver reports one. err stays reachable with errors.Is/As.
func MapViolation(v Violation, detail string, err error) error {
	switch v {
	case NoViolation:
		return err
	case UniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	if detail != "" {
		return fmt.Errorf("%w: %s (%s): %w", ErrInvalidEntity, v, detail, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidEntity, v, err)
}
