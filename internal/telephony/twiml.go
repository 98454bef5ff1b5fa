package telephony

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"dentalvoice/internal/agents"
	"dentalvoice/internal/routing"
)

// TwiML response builder for the carrier boundary. It intentionally
// avoids any provider SDK dependency: only the verbs we emit are modeled.
//
// Failure semantics: rendering never returns an error. Missing optional
// fields degrade to a generic message or a number-omitted step; a missing
// mandatory field degrades to the apology-hangup document. The output is
// always well-formed.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName  xml.Name `xml:"Dial"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Action   string   `xml:"action,attr,omitempty"`
	Number   string   `xml:"Number,omitempty"`
}

type twimlRecord struct {
	XMLName                 xml.Name `xml:"Record"`
	Action                  string   `xml:"action,attr,omitempty"`
	MaxLength               int      `xml:"maxLength,attr,omitempty"`
	PlayBeep                bool     `xml:"playBeep,attr"`
	RecordingStatusCallback string   `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlGather struct {
	XMLName   xml.Name `xml:"Gather"`
	NumDigits int      `xml:"numDigits,attr,omitempty"`
	Timeout   int      `xml:"timeout,attr,omitempty"`
	Action    string   `xml:"action,attr,omitempty"`
	Say       *twimlSay
}

type twimlConnect struct {
	XMLName xml.Name     `xml:"Connect"`
	Stream  *twimlStream `xml:"Stream,omitempty"`
}

type twimlStream struct {
	URL        string            `xml:"url,attr"`
	Parameters []twimlStreamParm `xml:"Parameter"`
}

type twimlStreamParm struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type twimlEnqueue struct {
	XMLName xml.Name `xml:"Enqueue"`
	WaitURL string   `xml:"waitUrl,attr,omitempty"`
	Name    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

// RenderContext carries the per-call values templates interpolate.
type RenderContext struct {
	CallSID string
	Caller  string
	AgentID string

	// TenantNumber is the tenant's registered carrier number, used as
	// caller ID on bridged legs.
	TenantNumber string

	// StreamURL is the tenant-specific media-stream endpoint for AI
	// sessions (wss://...).
	StreamURL string

	// BaseURL is the public https base for action/callback URLs.
	BaseURL string

	EmergencyNumber string
}

const (
	sayVoice        = "Polly.Joanna"
	dialTimeoutSecs = 30
	voicemailMaxSec = 120
)

const apologyText = "We're sorry, we are unable to take your call right now. Please try again later. Goodbye."

// RenderRouting maps a RoutingResult to its control document.
func RenderRouting(res routing.RoutingResult, ctx RenderContext) string {
	switch res.Decision {
	case routing.DecisionAIAgent:
		return renderAIAgent(ctx)
	case routing.DecisionForwardEmergency:
		return renderBridge(ctx, res.ForwardTo,
			"Connecting you to our emergency line now. Please stay on the line.")
	case routing.DecisionForwardFallback:
		return renderBridge(ctx, res.ForwardTo,
			"Please hold while we connect you to our front desk.")
	case routing.DecisionForwardTransfer:
		return renderBridge(ctx, res.ForwardTo,
			fmt.Sprintf("Please hold while we transfer you to %s.", orGeneric(res.ForwardToName, "the right person")))
	case routing.DecisionForwardAfterHrs:
		return renderAfterHours(ctx, res)
	case routing.DecisionVoicemail:
		return renderVoicemail(ctx,
			"You've reached us outside of staffed hours. Please leave a message after the tone and we will call you back.")
	case routing.DecisionQueue:
		return renderQueue(ctx, res)
	case routing.DecisionCallback:
		return renderCallback(ctx)
	default:
		return RenderApology()
	}
}

// RenderApology is the terminal degradation: spoken apology, hangup.
func RenderApology() string {
	return render(
		twimlSay{Voice: sayVoice, Text: apologyText},
		twimlHangup{},
	)
}

func renderAIAgent(ctx RenderContext) string {
	if ctx.StreamURL == "" {
		// No streaming endpoint configured: nothing to hand the call to.
		return RenderApology()
	}
	return render(
		twimlSay{Voice: sayVoice, Text: "Thank you for calling. One moment while I connect you."},
		twimlConnect{Stream: &twimlStream{
			URL: ctx.StreamURL,
			Parameters: []twimlStreamParm{
				{Name: "callSid", Value: ctx.CallSID},
				{Name: "caller", Value: ctx.Caller},
				{Name: "agentId", Value: ctx.AgentID},
			},
		}},
	)
}

// renderBridge speaks a message then bridges to number. The dial action
// swallows any verbs placed after Dial, so the failure fallthrough lives
// in the dial-status callback's response, not here.
func renderBridge(ctx RenderContext, number, message string) string {
	if number == "" {
		// Number omitted: degrade to the recording prompt alone.
		return renderVoicemail(ctx, "We are unable to connect you right now. Please leave a message after the tone.")
	}
	return render(
		twimlSay{Voice: sayVoice, Text: message},
		twimlDial{
			Timeout:  dialTimeoutSecs,
			CallerID: ctx.TenantNumber,
			Action:   ctx.action("/webhooks/voice/dial-status"),
			Number:   number,
		},
	)
}

func renderAfterHours(ctx RenderContext, res routing.RoutingResult) string {
	if res.ForwardTo == "" {
		return renderVoicemail(ctx,
			"Our office is currently closed. Please leave a message after the tone and we will return your call.")
	}
	prompt := "Our office is currently closed. If this is a dental emergency, press 1 to reach our on-call line. Otherwise, stay on the line to leave a message."
	if next, ok := res.Metadata["next_open"]; ok && next != routing.NextOpenUnknown {
		prompt = fmt.Sprintf("Our office is currently closed and reopens at %s. If this is a dental emergency, press 1 to reach our on-call line. Otherwise, stay on the line to leave a message.", next)
	}
	return render(
		twimlGather{
			NumDigits: 1,
			Timeout:   5,
			Action:    ctx.action("/webhooks/voice/after-hours-menu"),
			Say:       &twimlSay{Voice: sayVoice, Text: prompt},
		},
		twimlSay{Voice: sayVoice, Text: "Please leave a message after the tone."},
		recordVerb(ctx),
	)
}

func renderVoicemail(ctx RenderContext, prompt string) string {
	return render(
		twimlSay{Voice: sayVoice, Text: prompt},
		recordVerb(ctx),
	)
}

func renderQueue(ctx RenderContext, res routing.RoutingResult) string {
	msg := "All of our team members are currently busy. Please hold and we will be with you shortly."
	if res.QueuePosition > 0 {
		msg = fmt.Sprintf("You are number %d in line. Your estimated wait is about %d minutes. Please hold.",
			res.QueuePosition, maxInt(1, res.EstimatedWait/60))
	}
	return render(
		twimlSay{Voice: sayVoice, Text: msg},
		twimlEnqueue{WaitURL: ctx.action("/webhooks/voice/queue-wait"), Name: "agent-" + ctx.AgentID},
	)
}

func renderCallback(ctx RenderContext) string {
	return render(
		twimlGather{
			NumDigits: 1,
			Timeout:   5,
			Action:    ctx.action("/webhooks/voice/callback-menu"),
			Say:       &twimlSay{Voice: sayVoice, Text: "All of our team members are busy. Press 1 to receive a callback when we are available, or stay on the line to hold."},
		},
		twimlSay{Voice: sayVoice, Text: "Please continue to hold."},
		twimlEnqueue{WaitURL: ctx.action("/webhooks/voice/queue-wait"), Name: "agent-" + ctx.AgentID},
	)
}

// RenderDialOutcome is the follow-up document for a bridge-dial action
// callback. A completed dial means the parties already spoke, so the
// call just ends; any other outcome (busy, no-answer, failed, canceled)
// falls through to a recording prompt.
func RenderDialOutcome(dialStatus string, ctx RenderContext) string {
	switch dialStatus {
	case "completed", "answered":
		return render(twimlHangup{})
	default:
		return renderVoicemail(ctx, "We were unable to connect your call. Please leave a message after the tone.")
	}
}

// RenderAfterHoursDigit handles the after-hours single-digit menu:
// "1" with an emergency number configured bridges to it; anything else
// goes to voicemail.
func RenderAfterHoursDigit(digit string, ctx RenderContext) string {
	if digit == "1" && ctx.EmergencyNumber != "" {
		return renderBridge(ctx, ctx.EmergencyNumber,
			"Connecting you to our emergency line now.")
	}
	return renderVoicemail(ctx, "Please leave a message after the tone and we will return your call.")
}

// RenderTransferMenu reads out up to nine transfer targets, mapping each
// to its positional digit.
func RenderTransferMenu(targets []agents.TransferTarget, ctx RenderContext) string {
	if len(targets) == 0 {
		return RenderApology()
	}
	if len(targets) > 9 {
		targets = targets[:9]
	}
	prompt := ""
	for i, t := range targets {
		prompt += fmt.Sprintf("Press %d for %s. ", i+1, orGeneric(t.Name, "extension "+strconv.Itoa(i+1)))
	}
	return render(
		twimlGather{
			NumDigits: 1,
			Timeout:   8,
			Action:    ctx.action("/webhooks/voice/transfer-menu"),
			Say:       &twimlSay{Voice: sayVoice, Text: prompt},
		},
		twimlSay{Voice: sayVoice, Text: apologyText},
		twimlHangup{},
	)
}

// RenderTransferDigit bridges to the positionally selected target.
// Out-of-range or missing digits end with the apology-hangup document.
func RenderTransferDigit(digit string, targets []agents.TransferTarget, ctx RenderContext) string {
	n, err := strconv.Atoi(digit)
	if err != nil || n < 1 || n > len(targets) || n > 9 {
		return RenderApology()
	}
	t := targets[n-1]
	return renderBridge(ctx, t.Number,
		fmt.Sprintf("Connecting you to %s.", orGeneric(t.Name, "your selection")))
}

// recordVerb builds the voicemail recording step. Without an action the
// carrier would re-request the current document when the recording ends
// and replay the whole flow, so the action always points at the
// recording-done farewell.
func recordVerb(ctx RenderContext) twimlRecord {
	return twimlRecord{
		Action:                  ctx.action("/webhooks/voice/recording-done"),
		MaxLength:               voicemailMaxSec,
		PlayBeep:                true,
		RecordingStatusCallback: ctx.action("/webhooks/voice/recording"),
	}
}

func (c RenderContext) action(path string) string {
	if c.BaseURL == "" {
		return path
	}
	return c.BaseURL + path
}

func render(verbs ...any) string {
	r := twimlResponse{Verbs: verbs}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		// Static verb structs; encoding cannot realistically fail. If it
		// somehow does, hang up cleanly rather than emit garbage.
		return xml.Header + "<Response><Hangup/></Response>"
	}
	_ = enc.Flush()
	return buf.String()
}

func orGeneric(s, generic string) string {
	if s == "" {
		return generic
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
