// Package timestamp turns the date evidence of an access-log line into an
// hourly aggregation key.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formattedLayout is the NCSA date layout without the trailing offset.
const formattedLayout = "2/Jan/2006:15:04:05"

var (
	// ErrDateParse is returned when a formatted log date is malformed.
	ErrDateParse = errors.New("date parse failure")

	// ErrInvalidTimestamp is returned when an epoch value is not an integer.
	ErrInvalidTimestamp = errors.New("invalid timestamp content")
)

// Key is the (year, month, day, hour) aggregation key.
type Key struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// KeyOf returns the key of t in t's own location.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}
}

// Date drops the hour component.
func (k Key) Date() Date {
	return Date{Year: k.Year, Month: k.Month, Day: k.Day}
}

// String renders the key as YYYY-MM-DDTHH.
func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d", k.Year, k.Month, k.Day, k.Hour)
}

// MarshalText lets Key be used as a JSON object key.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Before reports whether k is chronologically earlier than other.
func (k Key) Before(other Key) bool {
	if k.Date() != other.Date() {
		return k.Date().Before(other.Date())
	}
	return k.Hour < other.Hour
}

// Date is a calendar day.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateParse, s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// AddDays shifts the day by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalText renders the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Normalizer converts formatted dates and epoch values into keys.
// Epoch values are interpreted in Location; a nil Location means time.Local.
type Normalizer struct {
	Location *time.Location
}

// NewNormalizer creates a normalizer for the given location.
func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc}
}

// FromFormatted parses "DD/Mon/YYYY:HH:MM:SS [+-ZZZZ]". The offset token is
// discarded: the hour is the one written in the log line.
func (n *Normalizer) FromFormatted(s string) (Key, error) {
	value, _, _ := strings.Cut(strings.TrimSpace(s), " ")
	t, err := time.Parse(formattedLayout, value)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrDateParse, s)
	}
	return KeyOf(t), nil
}

// FromEpoch parses a string holding integer seconds since the Unix epoch.
func (n *Normalizer) FromEpoch(s string) (Key, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: timestamp must be an integer, got %q", ErrInvalidTimestamp, s)
	}
	return n.FromEpochSeconds(secs), nil
}

// FromEpochSeconds converts integer seconds since the Unix epoch.
func (n *Normalizer) FromEpochSeconds(secs int64) Key {
	return KeyOf(time.Unix(secs, 0).In(n.location()))
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Location == nil {
		return time.Local
	}
	return n.Location
}
