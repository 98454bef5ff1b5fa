package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// TwilioVoiceForm captures the subset of voice webhook fields we care
// about. Twilio posts application/x-www-form-urlencoded by default.
//
// Adapter-only: no routing decisions are made here.

type TwilioVoiceForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string

	// DialCallStatus reports the outcome of a bridged dial leg on the
	// Dial action callback; CallStatus stays in-progress there.
	DialCallStatus string

	// SpeechResult carries caller utterance text when speech input is on.
	SpeechResult string
	// Digits carries DTMF input from a Gather.
	Digits string

	CallDuration int

	RecordingSid      string
	RecordingURL      string
	RecordingDuration int
}

func ParseTwilioVoiceForm(r *http.Request) (TwilioVoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioVoiceForm{}, err
	}
	f := TwilioVoiceForm{
		CallSid:           r.PostFormValue("CallSid"),
		AccountSid:        r.PostFormValue("AccountSid"),
		From:              strings.TrimSpace(r.PostFormValue("From")),
		To:                strings.TrimSpace(r.PostFormValue("To")),
		Direction:         r.PostFormValue("Direction"),
		CallStatus:        r.PostFormValue("CallStatus"),
		DialCallStatus:    r.PostFormValue("DialCallStatus"),
		SpeechResult:      r.PostFormValue("SpeechResult"),
		Digits:            r.PostFormValue("Digits"),
		CallDuration:      atoiOrZero(r.PostFormValue("CallDuration")),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		RecordingURL:      r.PostFormValue("RecordingUrl"),
		RecordingDuration: atoiOrZero(r.PostFormValue("RecordingDuration")),
	}
	return f, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
