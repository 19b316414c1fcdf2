package sqlite

import (
	"net/url"
	"strings"
)

// DefaultBusyTimeout is the busy timeout in milliseconds applied to every DSN
// that does not set one.
const DefaultBusyTimeout = "5000"

// DSN turns a database path, or an existing file: DSN, into a go-sqlite3 DSN
// with foreign key enforcement and a busy timeout. Parameters already present
// in the input win.
func DSN(path string, foreignKeys bool) string {
	path = strings.TrimPrefix(path, "file:")

	query := url.Values{}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if parsed, err := url.ParseQuery(path[i+1:]); err == nil {
			query = parsed
		}
		path = path[:i]
	}

	if query.Get("_foreign_keys") == "" && query.Get("_fk") == "" {
		if foreignKeys {
			query.Set("_foreign_keys", "on")
		} else {
			query.Set("_foreign_keys", "off")
		}
	}
	if query.Get("_busy_timeout") == "" && query.Get("_timeout") == "" {
		query.Set("_busy_timeout", DefaultBusyTimeout)
	}

	return "file:" + path + "?" + query.Encode()
}
