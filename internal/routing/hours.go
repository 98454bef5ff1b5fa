package routing

import (
	"fmt"

	"dentalvoice/internal/agents"
)

// HoursStatus reports where "now" falls in the practice's week.
type HoursStatus struct {
	IsAfterHours bool
	IsHoliday    bool
	IsLunchBreak bool
	Reason       string

	// NextOpenTime is "HH:MM" when reopening later today, or
	// "YYYY-MM-DD HH:MM" when reopening on a later day, or
	// NextOpenUnknown when the 7-day scan found no open day.
	NextOpenTime  string
	NextCloseTime string
}

// NextOpenUnknown is the sentinel for "closed with no ETA". Consumers
// must treat it as remain-closed, never as an error.
const NextOpenUnknown = "Unknown"

// EvaluateHours resolves open/closed state against a weekly schedule.
// Checks run in priority order: disabled config, holiday, disabled day,
// lunch window, before open, after close, open.
func EvaluateHours(cfg *agents.WorkingHoursConfig, now LocalTime) HoursStatus {
	if cfg == nil || !cfg.Enabled {
		return HoursStatus{Reason: "Working hours not configured; always open"}
	}

	if h, ok := holidayFor(cfg, now.Date); ok {
		return HoursStatus{
			IsAfterHours: true,
			IsHoliday:    true,
			Reason:       fmt.Sprintf("Closed for %s", holidayName(h)),
			NextOpenTime: nextOpenScan(cfg, now),
		}
	}

	day, ok := cfg.Schedule[now.Weekday]
	if !ok || !day.Enabled {
		return HoursStatus{
			IsAfterHours: true,
			Reason:       fmt.Sprintf("Closed on %s", now.Weekday),
			NextOpenTime: nextOpenScan(cfg, now),
		}
	}

	if day.LunchStart != "" && day.LunchEnd != "" && now.Time >= day.LunchStart && now.Time < day.LunchEnd {
		return HoursStatus{
			IsAfterHours: true,
			IsLunchBreak: true,
			Reason:       "Closed for lunch",
			NextOpenTime: day.LunchEnd,
		}
	}

	if now.Time < day.Open {
		return HoursStatus{
			IsAfterHours: true,
			Reason:       fmt.Sprintf("Not yet open; opens at %s", day.Open),
			NextOpenTime: day.Open,
		}
	}

	if now.Time >= day.Close {
		return HoursStatus{
			IsAfterHours: true,
			Reason:       fmt.Sprintf("Closed for the day at %s", day.Close),
			NextOpenTime: nextOpenScan(cfg, now),
		}
	}

	st := HoursStatus{Reason: "Open", NextCloseTime: day.Close}
	if day.LunchStart != "" && now.Time < day.LunchStart {
		st.NextCloseTime = day.LunchStart
	}
	return st
}

// nextOpenScan walks forward day by day, up to 7 days, returning the
// first enabled non-holiday day's date and opening time.
func nextOpenScan(cfg *agents.WorkingHoursConfig, now LocalTime) string {
	for i := 1; i <= 7; i++ {
		day := now.AddDays(i)
		sched, ok := cfg.Schedule[day.Weekday]
		if !ok || !sched.Enabled {
			continue
		}
		if _, holiday := holidayFor(cfg, day.Date); holiday {
			continue
		}
		return fmt.Sprintf("%s %s", day.Date, sched.Open)
	}
	return NextOpenUnknown
}

func holidayFor(cfg *agents.WorkingHoursConfig, date string) (agents.Holiday, bool) {
	for _, h := range cfg.Holidays {
		if h.Date == date {
			return h, true
		}
	}
	return agents.Holiday{}, false
}

func holidayName(h agents.Holiday) string {
	if h.Name != "" {
		return h.Name
	}
	return "holiday"
}
