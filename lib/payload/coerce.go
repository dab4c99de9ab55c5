package payload

import (
	"strconv"
	"time"
)

// Coercion helpers for per-field parsing. A false return means the
// record should be dropped, never that the run should abort.

func Float(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func Int(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func Day(s string) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	return d, err == nil
}
