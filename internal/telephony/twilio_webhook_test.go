package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseTwilioVoiceForm(t *testing.T) {
	form := url.Values{
		"CallSid":      {"CA123"},
		"AccountSid":   {"AC456"},
		"From":         {" +15550006000 "},
		"To":           {"+15550001000"},
		"Direction":    {"inbound"},
		"CallStatus":   {"in-progress"},
		"SpeechResult": {"I have severe pain"},
		"Digits":       {"1"},
		"CallDuration": {"42"},
	}
	req := httptest.NewRequest("POST", "/webhooks/voice/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseTwilioVoiceForm(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CallSid != "CA123" || got.AccountSid != "AC456" {
		t.Fatalf("bad sids: %+v", got)
	}
	if got.From != "+15550006000" {
		t.Fatalf("From must be trimmed, got %q", got.From)
	}
	if got.SpeechResult != "I have severe pain" || got.Digits != "1" {
		t.Fatalf("bad input fields: %+v", got)
	}
	if got.CallDuration != 42 {
		t.Fatalf("expected duration 42, got %d", got.CallDuration)
	}
}

func TestParseTwilioVoiceFormRecordingFields(t *testing.T) {
	form := url.Values{
		"CallSid":           {"CA123"},
		"RecordingSid":      {"RE789"},
		"RecordingUrl":      {"https://api.twilio.com/recordings/RE789"},
		"RecordingDuration": {"35"},
	}
	req := httptest.NewRequest("POST", "/webhooks/voice/recording", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseTwilioVoiceForm(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RecordingSid != "RE789" {
		t.Fatalf("bad recording sid: %+v", got)
	}
	if got.RecordingURL != "https://api.twilio.com/recordings/RE789" {
		t.Fatalf("bad recording url: %+v", got)
	}
	if got.RecordingDuration != 35 {
		t.Fatalf("expected recording duration 35, got %d", got.RecordingDuration)
	}
}

func TestParseTwilioVoiceFormMalformedNumbers(t *testing.T) {
	form := url.Values{
		"CallSid":      {"CA123"},
		"CallDuration": {"not-a-number"},
	}
	req := httptest.NewRequest("POST", "/webhooks/voice/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseTwilioVoiceForm(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CallDuration != 0 {
		t.Fatalf("malformed duration must parse as zero, got %d", got.CallDuration)
	}
}
