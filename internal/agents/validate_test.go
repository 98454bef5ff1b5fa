package agents

import (
	"errors"
	"strings"
	"testing"
)

func TestValidE164(t *testing.T) {
	valid := []string{"+15551234567", "+442071838750", "+12"}
	for _, n := range valid {
		if !ValidE164(n) {
			t.Fatalf("%q should be valid", n)
		}
	}
	invalid := []string{"", "15551234567", "+0551234567", "+1", "+1555123456789012", "+1555 123", "555-0100"}
	for _, n := range invalid {
		if ValidE164(n) {
			t.Fatalf("%q should be invalid", n)
		}
	}
}

func TestValidHHMM(t *testing.T) {
	valid := []string{"00:00", "08:30", "17:00", "23:59"}
	for _, s := range valid {
		if !ValidHHMM(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	invalid := []string{"", "8:30", "24:00", "12:60", "12:5", "noon"}
	for _, s := range invalid {
		if ValidHHMM(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func validConfig() AgentRoutingConfig {
	return AgentRoutingConfig{
		ID:           "agent-1",
		TenantID:     "tenant-1",
		TenantNumber: "+15550001000",
		Status:       AgentStatusActive,
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresTenantID(t *testing.T) {
	cfg := validConfig()
	cfg.TenantID = ""
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsBadNumbers(t *testing.T) {
	cfg := validConfig()
	cfg.FallbackNumber = "555-0100"
	cfg.TransferNumbers = []TransferTarget{{Name: "Desk", Number: "not-a-number"}}
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	// All problems are joined, not just the first.
	if !strings.Contains(err.Error(), "fallback_number") || !strings.Contains(err.Error(), "transfer_numbers[0]") {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestValidateOverflowForwardRequiresNumber(t *testing.T) {
	cfg := validConfig()
	cfg.OverflowAction = OverflowForward
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg.OverflowNumber = "+15550004000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownOverflowAction(t *testing.T) {
	cfg := validConfig()
	cfg.OverflowAction = "page-the-dentist"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	cfg := validConfig()
	cfg.Status = "SLEEPING"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWorkingHoursValidateDisabledSkipsChecks(t *testing.T) {
	w := WorkingHoursConfig{
		Enabled:  false,
		Timezone: "Mars/Olympus",
		Schedule: map[string]DaySchedule{"monday": {Enabled: true, Open: "bad", Close: "worse"}},
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("disabled config is stored as-is: %v", err)
	}
}

func TestWorkingHoursValidateRejectsBadTimezone(t *testing.T) {
	w := WorkingHoursConfig{Enabled: true, Timezone: "Mars/Olympus"}
	if err := w.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWorkingHoursValidateOpenBeforeClose(t *testing.T) {
	w := WorkingHoursConfig{
		Enabled: true,
		Schedule: map[string]DaySchedule{
			"monday": {Enabled: true, Open: "17:00", Close: "08:00"},
		},
	}
	if err := w.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWorkingHoursValidateLunchWindow(t *testing.T) {
	base := DaySchedule{Enabled: true, Open: "08:00", Close: "17:00"}

	cases := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"valid", "12:00", "13:00", false},
		{"reversed", "13:00", "12:00", true},
		{"before open", "07:00", "09:00", true},
		{"after close", "16:30", "17:30", true},
		{"half specified", "12:00", "", true},
	}
	for _, c := range cases {
		d := base
		d.LunchStart = c.start
		d.LunchEnd = c.end
		w := WorkingHoursConfig{Enabled: true, Schedule: map[string]DaySchedule{"tuesday": d}}
		err := w.Validate()
		if c.wantErr && !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", c.name, err)
		}
		if !c.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
	}
}

func TestWorkingHoursValidateHolidayDates(t *testing.T) {
	w := WorkingHoursConfig{
		Enabled:  true,
		Holidays: []Holiday{{Date: "12/25/2025", Name: "Holiday"}},
	}
	if err := w.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateDisabledDaysIgnored(t *testing.T) {
	w := WorkingHoursConfig{
		Enabled: true,
		Schedule: map[string]DaySchedule{
			"sunday": {Enabled: false, Open: "bad", Close: "worse"},
		},
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("disabled day contents are ignored: %v", err)
	}
}
