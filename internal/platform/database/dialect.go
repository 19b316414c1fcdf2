package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/phrazzld/txspec/internal/platform/postgres"
	"github.com/phrazzld/txspec/internal/platform/sqlite"
	"github.com/phrazzld/txspec/internal/store"
)

// Dialect identifies the database family behind a target.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ErrUnknownDialect is returned when a dialect name or URL scheme is not supported.
var ErrUnknownDialect = errors.New("unknown database dialect")

// ParseDialect converts a configured dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// DialectFromURL infers the dialect from a connection string.
func DialectFromURL(url string) (Dialect, error) {
	lower := strings.ToLower(strings.TrimSpace(url))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "sqlite3://"),
		strings.HasPrefix(lower, "file:"):
		return SQLite, nil
	}

	path := lower
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(path, ext) {
			return SQLite, nil
		}
	}
	return "", fmt.Errorf("%w: cannot infer dialect from connection string", ErrUnknownDialect)
}

func (d Dialect) String() string { return string(d) }

// DriverName is the database/sql driver used to open the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return postgres.DriverName
	case SQLite:
		return sqlite.DriverName
	default:
		return ""
	}
}

// GooseDialect is the dialect name goose expects.
func (d Dialect) GooseDialect() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// Rebind rewrites ? placeholders into the dialect's style. Placeholders
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// QuoteIdent quotes a possibly schema-qualified identifier. Both dialects use
// SQL standard double quotes.
func (d Dialect) QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// Classify reports which constraint a driver error violated.
func (d Dialect) Classify(err error) store.Violation {
	switch d {
	case Postgres:
		return postgres.Classify(err)
	case SQLite:
		return sqlite.Classify(err)
	default:
		return store.NoViolation
	}
}

// IsForeignKeyViolation reports whether err is the dialect's referential
// integrity error.
func (d Dialect) IsForeignKeyViolation(err error) bool {
	return d.Classify(err) == store.ForeignKeyViolation
}

// MapError maps a driver error to the store error taxonomy.
func (d Dialect) MapError(err error) error {
	switch d {
	case Postgres:
		return postgres.MapError(err)
	case SQLite:
		return sqlite.MapError(err)
	default:
		return err
	}
}

// Migrations returns the embedded goose migrations for the example schema.
func (d Dialect) Migrations() (fs.FS, error) {
	switch d {
	case Postgres:
		return postgres.Migrations(), nil
	case SQLite:
		return sqlite.Migrations(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}

// Tables lists the user tables, including the migration bookkeeping table.
func (d Dialect) Tables(ctx context.Context, db store.DBTX) ([]string, error) {
	switch d {
	case Postgres:
		return postgres.Tables(ctx, db)
	case SQLite:
		return sqlite.Tables(ctx, db)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}

// ForeignKeys lists the referential edges between user tables.
func (d Dialect) ForeignKeys(ctx context.Context, db store.DBTX) ([]store.ForeignKey, error) {
	switch d {
	case Postgres:
		return postgres.ForeignKeys(ctx, db)
	case SQLite:
		return sqlite.ForeignKeys(ctx, db)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}

// DSN converts a configured URL into the driver's data source name. Postgres
// URLs pass through; SQLite URLs become go-sqlite3 file: DSNs.
func DSN(d Dialect, url string, foreignKeys bool) (string, error) {
	switch d {
	case Postgres:
		return url, nil
	case SQLite:
		path := url
		for _, prefix := range []string{"sqlite3://", "sqlite://"} {
			if len(path) >= len(prefix) && strings.EqualFold(path[:len(prefix)], prefix) {
				path = path[len(prefix):]
				break
			}
		}
		if path == "" || path == "file:" {
			return "", errors.New("sqlite connection string has no database path")
		}
		return sqlite.DSN(path, foreignKeys), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}
