// Package logging provides secure logging utilities with credential sanitization.
package logging

import (
	"time"

	"github.com/olegiv/go-logger"
	"github.com/rs/zerolog"

	internalerrors "github.com/olegiv/logvalidator-go/internal/errors"
)

// SecureLogger wraps a logger.Logger and redacts credentials from every
// string that reaches the log. Input paths may be URLs with userinfo and
// access log lines carry raw query strings, so both pass through here.
type SecureLogger struct {
	log *logger.Logger
}

// NewSecure creates a new SecureLogger wrapper around the provided logger.
func NewSecure(log *logger.Logger) *SecureLogger {
	return &SecureLogger{log: log}
}

// SecureEvent wraps a zerolog Event; string-bearing fields are sanitized.
type SecureEvent struct {
	event *zerolog.Event
}

func wrap(e *zerolog.Event) *SecureEvent {
	return &SecureEvent{event: e}
}

// Info starts a new info-level event.
func (s *SecureLogger) Info() *SecureEvent { return wrap(s.log.Info()) }

// Debug starts a new debug-level event.
func (s *SecureLogger) Debug() *SecureEvent { return wrap(s.log.Debug()) }

// Warn starts a new warn-level event.
func (s *SecureLogger) Warn() *SecureEvent { return wrap(s.log.Warn()) }

// Error starts a new error-level event.
func (s *SecureLogger) Error() *SecureEvent { return wrap(s.log.Error()) }

// Zerolog returns a child of the underlying zerolog.Logger tagged with
// component. Library packages log counts and local paths through it; values
// that may carry credentials must go through the SecureLogger instead.
func (s *SecureLogger) Zerolog(component string) zerolog.Logger {
	return s.log.With().Str("component", component).Logger()
}

// Close closes the underlying logger.
func (s *SecureLogger) Close() error {
	return s.log.Close()
}

// Str adds a sanitized string field.
func (e *SecureEvent) Str(key, val string) *SecureEvent {
	e.event.Str(key, internalerrors.SanitizeString(val))
	return e
}

// Strs adds a sanitized string slice field, such as the input paths of a run.
func (e *SecureEvent) Strs(key string, vals []string) *SecureEvent {
	e.event.Strs(key, sanitizeAll(vals))
	return e
}

// Int adds an integer field.
func (e *SecureEvent) Int(key string, val int) *SecureEvent {
	e.event.Int(key, val)
	return e
}

// Int64 adds an int64 field.
func (e *SecureEvent) Int64(key string, val int64) *SecureEvent {
	e.event.Int64(key, val)
	return e
}

// Float64 adds a float64 field.
func (e *SecureEvent) Float64(key string, val float64) *SecureEvent {
	e.event.Float64(key, val)
	return e
}

// Dur adds a duration field.
func (e *SecureEvent) Dur(key string, val time.Duration) *SecureEvent {
	e.event.Dur(key, val)
	return e
}

// Bool adds a boolean field.
func (e *SecureEvent) Bool(key string, val bool) *SecureEvent {
	e.event.Bool(key, val)
	return e
}

// Err adds the error with its message sanitized. A nil error is skipped.
func (e *SecureEvent) Err(err error) *SecureEvent {
	if err != nil {
		e.event.Err(internalerrors.SanitizeError(err))
	}
	return e
}

// Interface adds an arbitrary field. Strings, string slices and errors are
// sanitized; other values are logged as given.
func (e *SecureEvent) Interface(key string, val interface{}) *SecureEvent {
	switch v := val.(type) {
	case string:
		e.event.Str(key, internalerrors.SanitizeString(v))
	case []string:
		e.event.Strs(key, sanitizeAll(v))
	case error:
		e.event.Str(key, internalerrors.SanitizeString(v.Error()))
	default:
		e.event.Interface(key, val)
	}
	return e
}

// Msg sends the event with a sanitized message.
func (e *SecureEvent) Msg(msg string) {
	e.event.Msg(internalerrors.SanitizeString(msg))
}

// Msgf sends the event with a formatted message. String and error arguments
// are sanitized before formatting.
func (e *SecureEvent) Msgf(format string, v ...interface{}) {
	args := make([]interface{}, len(v))
	for i, arg := range v {
		args[i] = sanitizeArg(arg)
	}
	e.event.Msgf(format, args...)
}

func sanitizeArg(arg interface{}) interface{} {
	switch a := arg.(type) {
	case string:
		return internalerrors.SanitizeString(a)
	case error:
		return internalerrors.SanitizeError(a)
	default:
		return arg
	}
}

func sanitizeAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = internalerrors.SanitizeString(v)
	}
	return out
}
