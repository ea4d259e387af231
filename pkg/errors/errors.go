package realtime_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidChange    = errors.New("invalid change event")
	ErrUnknownTable     = errors.New("unknown table")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNotSubscribed    = errors.New("not subscribed")
	ErrFeedClosed       = errors.New("change feed closed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)

// NowISO returns the current UTC time formatted as ISO-8601 with millisecond precision
func NowISO() string {
	return FormatISO(time.Now())
}

// FormatISO formats t the way payload timestamps are written on the wire
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
