package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrArtistNotFound",
			err:      ErrArtistNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrAlbumNotFound",
			err:      fmt.Errorf("failed to find album: %w", ErrAlbumNotFound),
			expected: true,
		},
		{
			name:     "ErrDuplicate",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ErrDuplicate",
			err:      ErrDuplicate,
			expected: true,
		},
		{
			name:     "wrapped ErrDuplicate",
			err:      fmt.Errorf("failed to create: %w", ErrDuplicate),
			expected: true,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateError(tt.err); got != tt.expected {
				t.Errorf("IsDuplicateError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("artist", "create", "database error", originalErr)

	expectedErrorString := "create operation on artist failed: database error: database connection failed"
	if got := storeErr.Error(); got != expectedErrorString {
		t.Errorf("StoreError.Error() = %v, want %v", got, expectedErrorString)
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}

	bare := NewStoreError("album", "delete", "no rows", nil)
	if got := bare.Error(); got != "delete operation on album failed: no rows" {
		t.Errorf("StoreError.Error() = %v", got)
	}
}

func TestCheckRowsAffected(t *testing.T) {
	tests := []struct {
		name     string
		result   driver.Result
		entity   string
		wantErr  error
		contains string
	}{
		{name: "one row", result: driver.RowsAffected(1)},
		{name: "no rows", result: driver.RowsAffected(0), entity: "artist", wantErr: ErrNotFound, contains: "artist not found"},
		{name: "no rows unnamed", result: driver.RowsAffected(0), wantErr: ErrNotFound},
		{name: "unsupported", result: driver.ResultNoRows, contains: "failed to get rows affected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRowsAffected(tt.result, tt.entity)
			if tt.wantErr == nil && tt.contains == "" {
				if err != nil {
					t.Fatalf("CheckRowsAffected() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("CheckRowsAffected() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckRowsAffected() = %v, want %v", err, tt.wantErr)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("CheckRowsAffected() = %q, want it to contain %q", err, tt.contains)
			}
		})
	}

	if err := CheckRowsAffected(nil, "artist"); err == nil {
		t.Error("CheckRowsAffected(nil) = nil, want error")
	}
}

func TestMapViolation(t *testing.T) {
	cause := errors.New("constraint failed")

	tests := []struct {
		name     string
		v        Violation
		detail   string
		expected error
		contains string
	}{
		{name: "unique", v: UniqueViolation, expected: ErrDuplicate},
		{name: "foreign key with constraint", v: ForeignKeyViolation, detail: "albums_artist_id_fkey", expected: ErrInvalidEntity, contains: "foreign key violation (albums_artist_id_fkey)"},
		{name: "check", v: CheckViolation, expected: ErrInvalidEntity, contains: "check constraint violation"},
		{name: "not null", v: NotNullViolation, detail: "title", expected: ErrInvalidEntity, contains: "(title)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapViolation(tt.v, tt.detail, cause)
			if !errors.Is(mapped, tt.expected) {
				t.Errorf("MapViolation() = %v, want %v in chain", mapped, tt.expected)
			}
			if !errors.Is(mapped, cause) {
				t.Errorf("MapViolation() = %v, lost the driver error", mapped)
			}
			if !strings.Contains(mapped.Error(), tt.contains) {
				t.Errorf("MapViolation() = %q, want it to contain %q", mapped, tt.contains)
			}
		})
	}

	if got := MapViolation(NoViolation, "", cause); got != cause {
		t.Errorf("MapViolation(NoViolation) = %v, want the error unchanged", got)
	}
}
