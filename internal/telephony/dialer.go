package telephony

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Dialer initiates outbound call legs (e.g. callbacks). The control
// document for the new leg is fetched by the carrier from InitialURL.
type Dialer interface {
	StartCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error)
}

type OutboundCallRequest struct {
	To   string `json:"to"`
	From string `json:"from"`

	// InitialURL serves the first control document for the new leg.
	InitialURL string `json:"initial_url"`
	// StatusCallbackURL receives terminal status events.
	StatusCallbackURL string `json:"status_callback_url"`

	RecordCall bool `json:"record_call"`
}

type OutboundCallResult struct {
	// ProviderCallID is the carrier-assigned id of the new leg.
	ProviderCallID string `json:"provider_call_id"`
}

// TwilioDialer places calls through the Twilio REST API.
type TwilioDialer struct {
	client *twilio.RestClient
}

func NewTwilioDialer(accountSID, authToken string) *TwilioDialer {
	return &TwilioDialer{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

func (d *TwilioDialer) StartCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error) {
	if d.client == nil {
		return OutboundCallResult{}, errors.New("telephony: dialer not configured")
	}
	if req.To == "" || req.From == "" || req.InitialURL == "" {
		return OutboundCallResult{}, errors.New("telephony: to, from and initial url are required")
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetUrl(req.InitialURL)
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"completed"})
	}
	params.SetRecord(req.RecordCall)

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return OutboundCallResult{}, fmt.Errorf("telephony: create call: %w", err)
	}
	if resp.Sid == nil {
		return OutboundCallResult{}, errors.New("telephony: carrier returned no call sid")
	}
	return OutboundCallResult{ProviderCallID: *resp.Sid}, nil
}
