// Package errors provides utilities for sanitizing errors to prevent credential leakage.
package errors

import (
	"fmt"
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// credentialPattern pairs a matcher with its replacement template.
type credentialPattern struct {
	re          *regexp.Regexp
	replacement string
}

// Credential patterns to redact from error messages and log fields.
// Access log lines carry raw request URLs, so query-string secrets and
// URL userinfo are covered alongside the notifier's bot token.
var credentialPatterns = []credentialPattern{
	// Telegram bot token: 123456789:ABC-DEF... (token part is typically 35-36 chars)
	{regexp.MustCompile(`\d{8,12}:[a-zA-Z0-9_-]{30,}`), redactedPlaceholder},
	// user:password@ in URLs (sftp mirrors, proxies)
	{regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/\s:@]+:[^/\s@]+@`), "${1}" + redactedPlaceholder + "@"},
	// Bearer tokens in headers
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`), redactedPlaceholder},
	// Authorization headers (matches "authorization: value" or "authorization value")
	{regexp.MustCompile(`(?i)authorization[:\s]+[^\s]+`), redactedPlaceholder},
	// Secrets in query strings
	{regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?token|password|passwd|secret)[=:][^\s&"']+`), redactedPlaceholder},
	// X-API-Key headers
	{regexp.MustCompile(`(?i)x-api-key[:\s]+[^\s]+`), redactedPlaceholder},
}

// SanitizeError wraps an error, redacting any credentials that may appear in the error message.
// This prevents sensitive information from being logged or exposed in reports.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}

	sanitized := SanitizeString(err.Error())
	if sanitized == err.Error() {
		// No changes needed, return original error to preserve error chain
		return err
	}

	return &sanitizedError{
		original:  err,
		sanitized: sanitized,
	}
}

// SanitizeString redacts credential patterns from a string.
func SanitizeString(s string) string {
	result := s
	for _, p := range credentialPatterns {
		result = p.re.ReplaceAllString(result, p.replacement)
	}
	return result
}

// Wrapf wraps an error with a formatted message, sanitizing any credentials in the underlying error.
// This is a replacement for fmt.Errorf("...: %w", err) when the error may contain credentials.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)
	sanitizedErr := SanitizeError(err)

	return fmt.Errorf("%s: %w", msg, sanitizedErr)
}

// sanitizedError wraps an error with a sanitized message.
type sanitizedError struct {
	original  error
	sanitized string
}

func (e *sanitizedError) Error() string {
	return e.sanitized
}

func (e *sanitizedError) Unwrap() error {
	return e.original
}

// ContainsCredentials checks if a string appears to contain credentials.
func ContainsCredentials(s string) bool {
	for _, p := range credentialPatterns {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}

// MaskCredential partially masks a credential string for safe logging.
// Example: "1234567890:ABC..." -> "1234567890:***..."
func MaskCredential(s string) string {
	if len(s) < 10 {
		return strings.Repeat("*", len(s))
	}

	// Telegram bot token format (number:token)
	if idx := strings.Index(s, ":"); idx > 0 && idx <= 12 {
		if isDigits(s[:idx]) {
			return s[:idx] + ":***..."
		}
	}

	// Generic masking: show first 4 chars + "***..."
	return s[:4] + "***..."
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
