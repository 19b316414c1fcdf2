// Package redact removes credentials from strings before they are logged.
// Driver errors and connection failures often echo the connection string,
// and the harness logs those errors in CI where logs are widely visible.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted values.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedPasswordPlaceholder   = "password=[REDACTED]"
)

var (
	// scheme://user:password@ in any URL-shaped connection string. The user
	// name is kept because it helps diagnose permission errors.
	urlCredentialRegex = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://[^:/@\s]*):[^@\s]+@`)

	// password=... in key/value DSNs and query strings.
	passwordRegex = regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)=(?:'[^']*'|[^\s&;]+)`)

	// sslkey, sslpassword and friends in libpq DSNs.
	sslSecretRegex = regexp.MustCompile(`(?i)\bssl(?:password|key)=(?:'[^']*'|[^\s&;]+)`)
)

// String returns s with credentials replaced by placeholders.
func String(s string) string {
	if s == "" {
		return s
	}
	s = urlCredentialRegex.ReplaceAllString(s, "$1:"+RedactedCredentialPlaceholder+"@")
	s = passwordRegex.ReplaceAllString(s, RedactedPasswordPlaceholder)
	s = sslSecretRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	return s
}

// Error returns err's message with credentials redacted.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// ErrorAttr is an "error" log attribute carrying the redacted message.
func ErrorAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
