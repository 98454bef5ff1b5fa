package agents

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validation happens at configuration-write time. Call-time code assumes
// stored configs are well-formed and degrades instead of validating.

var ErrInvalidConfig = errors.New("agents: invalid configuration")

var (
	e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidE164 reports whether s is an E.164 number: "+" followed by 2-15
// digits with no leading zero.
func ValidE164(s string) bool {
	return e164Re.MatchString(s)
}

// ValidHHMM reports whether s is a 24-hour "HH:MM" time string.
func ValidHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

// Validate checks a full routing config. It returns all problems joined,
// not just the first, following the config-loading convention.
func (c AgentRoutingConfig) Validate() error {
	var errs []error

	if c.TenantID == "" {
		errs = append(errs, errors.New("tenant_id is required"))
	}

	for field, num := range map[string]string{
		"tenant_number":      c.TenantNumber,
		"fallback_number":    c.FallbackNumber,
		"after_hours_number": c.AfterHoursNumber,
		"emergency_number":   c.EmergencyNumber,
		"overflow_number":    c.OverflowNumber,
	} {
		if num != "" && !ValidE164(num) {
			errs = append(errs, fmt.Errorf("%s %q is not E.164", field, num))
		}
	}

	for i, t := range c.TransferNumbers {
		if !ValidE164(t.Number) {
			errs = append(errs, fmt.Errorf("transfer_numbers[%d].number %q is not E.164", i, t.Number))
		}
	}

	switch c.OverflowAction {
	case "", OverflowVoicemail, OverflowForward, OverflowCallback:
	default:
		errs = append(errs, fmt.Errorf("overflow_action %q is not one of voicemail, forward, callback", c.OverflowAction))
	}
	if c.OverflowAction == OverflowForward && c.OverflowNumber == "" {
		errs = append(errs, errors.New("overflow_action forward requires overflow_number"))
	}

	switch c.Status {
	case "", AgentStatusActive, AgentStatusInactive, AgentStatusPaused:
	default:
		errs = append(errs, fmt.Errorf("status %q is not one of ACTIVE, INACTIVE, PAUSED", c.Status))
	}

	if c.WorkingHours != nil {
		if err := c.WorkingHours.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return joinValidation(errs)
}

// Validate checks schedule shape and ordering invariants.
func (w WorkingHoursConfig) Validate() error {
	var errs []error

	if !w.Enabled {
		// Disabled configs are stored as-is; evaluation treats them as
		// always open regardless of schedule contents.
		return nil
	}

	if w.Timezone != "" {
		if _, err := time.LoadLocation(w.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q is not a known IANA zone", w.Timezone))
		}
	}

	for _, day := range Weekdays {
		d, ok := w.Schedule[day]
		if !ok || !d.Enabled {
			continue
		}
		if !ValidHHMM(d.Open) || !ValidHHMM(d.Close) {
			errs = append(errs, fmt.Errorf("%s open/close must be HH:MM, got %q/%q", day, d.Open, d.Close))
			continue
		}
		if d.Open >= d.Close {
			errs = append(errs, fmt.Errorf("%s open %q must be before close %q", day, d.Open, d.Close))
		}
		if d.LunchStart != "" || d.LunchEnd != "" {
			if !ValidHHMM(d.LunchStart) || !ValidHHMM(d.LunchEnd) {
				errs = append(errs, fmt.Errorf("%s lunch window must be HH:MM, got %q/%q", day, d.LunchStart, d.LunchEnd))
				continue
			}
			if d.LunchStart >= d.LunchEnd {
				errs = append(errs, fmt.Errorf("%s lunch_start %q must be before lunch_end %q", day, d.LunchStart, d.LunchEnd))
			}
			if d.LunchStart < d.Open || d.LunchEnd > d.Close {
				errs = append(errs, fmt.Errorf("%s lunch window %q-%q must lie within %q-%q", day, d.LunchStart, d.LunchEnd, d.Open, d.Close))
			}
		}
	}

	for i, h := range w.Holidays {
		if _, err := time.Parse("2006-01-02", h.Date); err != nil {
			errs = append(errs, fmt.Errorf("holidays[%d].date %q must be YYYY-MM-DD", i, h.Date))
		}
	}

	return joinValidation(errs)
}

func joinValidation(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}
