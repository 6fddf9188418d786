package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNoWhatsAppSender is returned when no WhatsApp-enabled number is configured
var ErrNoWhatsAppSender = errors.New("whatsapp sender number not configured")

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS and WhatsApp messages through Twilio
type TwilioSender struct {
	api          messageCreator
	from         string
	whatsAppFrom string
}

var _ PhoneSender = (*TwilioSender)(nil)

// NewTwilioSender creates a sender for the given account
func NewTwilioSender(accountSID, authToken, from, whatsAppFrom string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from, whatsAppFrom: whatsAppFrom}
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	return s.send(ctx, to, s.from, body)
}

func (s *TwilioSender) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	if s.whatsAppFrom == "" {
		return "", ErrNoWhatsAppSender
	}
	return s.send(ctx, whatsAppAddress(to), whatsAppAddress(s.whatsAppFrom), body)
}

func (s *TwilioSender) send(ctx context.Context, to, from, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	if msg == nil || msg.Sid == nil {
		return "", nil
	}
	return *msg.Sid, nil
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
