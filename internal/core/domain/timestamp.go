package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// timestampLayouts are the textual change-timestamp formats seen in the
// database, the spreadsheet and the history log.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ToSerial converts a time to a spreadsheet serial number: days since
// 1899-12-30 with the time of day as the fractional part.
// The wall clock of t is used as-is and its zone is dropped, so serials from
// one source share that source's zone. FromSerial returns them labelled UTC.
func ToSerial(t time.Time) float64 {
	return WallClock(t, t.Location()).Sub(serialEpoch).Hours() / 24
}

// WallClock returns the wall clock of t in loc, labelled UTC. It puts an
// instant in the same frame as serial dates read from a loc-zoned source.
func WallClock(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// FromSerial converts a spreadsheet serial number back to a UTC wall-clock time,
// rounded to the millisecond.
func FromSerial(serial float64) time.Time {
	ms := math.Round(serial * 24 * 60 * 60 * 1000)
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// ParseTimestamp interprets a change-timestamp value.
// Times pass through, numbers are spreadsheet serials, strings are tried
// against the known layouts and then as a serial number.
func ParseTimestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case float64:
		return serialToTime(x)
	case float32:
		return serialToTime(float64(x))
	case int64:
		return serialToTime(float64(x))
	case int:
		return serialToTime(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToTime(f)
		}
		return time.Time{}, false
	default:
		return ParseTimestamp(FormatValue(v))
	}
}

func serialToTime(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	return FromSerial(f), true
}

// SameInstant reports whether two timestamps are the same instant at second precision.
func SameInstant(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

// After reports whether a is later than b at second precision.
func After(a, b time.Time) bool {
	return a.Truncate(time.Second).After(b.Truncate(time.Second))
}
