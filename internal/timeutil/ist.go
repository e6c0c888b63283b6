// Package timeutil holds the mill's wall-clock conventions. Every timestamp the
// backend stores or prints is Indian Standard Time.
package timeutil

import (
	"errors"
	"strings"
	"time"
)

// IST is UTC+05:30. A fixed zone avoids depending on the host tzdata.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// DisplayLayout is the DD-MM-YYYY HH:MM form used in lists and on printed slips.
const DisplayLayout = "02-01-2006 15:04"

// DateLayout is the DD-MM-YYYY form used where only the day matters.
const DateLayout = "02-01-2006"

var ErrEmpty = errors.New("empty time value")

// zone-less layouts are read as IST wall time
var localLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// Parse reads a date or datetime sent by the form. Values carrying an offset
// (RFC 3339, trailing Z) are converted to IST; bare values are taken as IST.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(IST), nil
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, IST)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Format renders t as DD-MM-YYYY HH:MM in IST. The zero time renders empty.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(IST).Format(DisplayLayout)
}

// FormatPtr is Format for optional columns.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// StartOfDay truncates t to IST midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.In(IST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
}
