// Package logging keeps credentials out of log output. Connection
// strings and driver errors routinely embed passwords; every host URL
// or database error the registry logs goes through these sanitizers
// first.
package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx key/value pairs in DSNs
	// (until the next delimiter).
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host credentials embedded in URL-style
	// connection strings.
	connStringPattern = regexp.MustCompile(`://[^:/?#]+:[^@]+@[^/\s]+`)

	// Matches the go-sql-driver DSN form user:pass@tcp(host:port).
	mysqlDSNPattern = regexp.MustCompile(`^[^:@/]+:[^@]+@tcp\(`)
)

// SanitizeConnectionString removes credentials from a connection string
// before it is logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	sanitized = mysqlDSNPattern.ReplaceAllString(sanitized, RedactedText+"@tcp(")

	return sanitized
}

// SanitizeError sanitizes an error message that might echo parts of a
// connection string back, e.g. a driver rejecting bad credentials.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}
