package postgres

import (
	"time"

	"github.com/dailydone/backend/pkg/dates"
)

// nullDay converts a "YYYY-MM-DD" string to a value suitable for a DATE
// column, with "" mapping to NULL.
func nullDay(day string) interface{} {
	if day == "" {
		return nil
	}
	return day
}

// dayString renders a scanned DATE column back into the wire format.
func dayString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dates.Layout)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
