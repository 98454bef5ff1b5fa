package routing

import (
	"errors"
	"fmt"
	"time"
)

// LocalTime is "now" resolved into a tenant's timezone.
type LocalTime struct {
	Date    string // YYYY-MM-DD
	Time    string // HH:MM
	Weekday string // lowercase, "monday".."sunday"

	loc *time.Location
	at  time.Time
}

var ErrInvalidTimezone = errors.New("routing: invalid timezone")

// DefaultTimezone is the reference zone used when a tenant's configured
// zone cannot be loaded. Callers log the anomaly; the call proceeds.
const DefaultTimezone = "America/New_York"

// ResolveLocal converts now into the named IANA zone. An unknown zone
// name returns ErrInvalidTimezone; use ResolveLocalOrDefault at call time.
//
// time.LoadLocation consults the real tzdata, so daylight-saving
// transitions shift local business hours correctly.
func ResolveLocal(now time.Time, timezone string) (LocalTime, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}
	return newLocalTime(now.In(loc)), nil
}

// ResolveLocalOrDefault resolves now in the given zone, falling back to
// fallback (or DefaultTimezone when fallback is empty) on an unknown
// name. The fallback is reported so the caller can log it; the call
// itself must not fail on a bad zone.
func ResolveLocalOrDefault(now time.Time, timezone, fallback string) (lt LocalTime, fellBack bool) {
	lt, err := ResolveLocal(now, timezone)
	if err == nil {
		return lt, false
	}
	if fallback == "" {
		fallback = DefaultTimezone
	}
	loc, err := time.LoadLocation(fallback)
	if err != nil {
		loc = time.UTC
	}
	return newLocalTime(now.In(loc)), true
}

func newLocalTime(t time.Time) LocalTime {
	return LocalTime{
		Date:    t.Format("2006-01-02"),
		Time:    t.Format("15:04"),
		Weekday: weekdayKey(t.Weekday()),
		loc:     t.Location(),
		at:      t,
	}
}

// AddDays returns the LocalTime n calendar days forward, preserving zone.
// Used by the next-open scan.
func (lt LocalTime) AddDays(n int) LocalTime {
	return newLocalTime(lt.at.AddDate(0, 0, n))
}

func weekdayKey(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
