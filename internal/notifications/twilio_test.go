package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func sid(s string) *twilioApi.ApiV2010Message {
	return &twilioApi.ApiV2010Message{Sid: &s}
}

func paramsMatch(to, from string) interface{} {
	return mock.MatchedBy(func(p *twilioApi.CreateMessageParams) bool {
		return p.To != nil && *p.To == to && p.From != nil && *p.From == from
	})
}

func TestTwilioSender_SendSMS(t *testing.T) {
	api := new(mockMessageCreator)
	sender := &TwilioSender{api: api, from: "+27870000000"}
	api.On("CreateMessage", paramsMatch("+27821234567", "+27870000000")).Return(sid("SM123"), nil)

	id, err := sender.SendSMS(t.Context(), "+27821234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "SM123", id)
	api.AssertExpectations(t)
}

func TestTwilioSender_SendWhatsApp(t *testing.T) {
	api := new(mockMessageCreator)
	sender := &TwilioSender{api: api, from: "+27870000000", whatsAppFrom: "+14155238886"}
	api.On("CreateMessage", paramsMatch("whatsapp:+27821234567", "whatsapp:+14155238886")).Return(sid("SM456"), nil)

	id, err := sender.SendWhatsApp(t.Context(), "+27821234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "SM456", id)

	_, err = (&TwilioSender{api: api}).SendWhatsApp(t.Context(), "+27821234567", "hello")
	assert.ErrorIs(t, err, ErrNoWhatsAppSender)
}

func TestTwilioSender_Errors(t *testing.T) {
	api := new(mockMessageCreator)
	sender := &TwilioSender{api: api, from: "+27870000000"}
	api.On("CreateMessage", mock.Anything).Return(nil, errors.New("invalid number"))

	_, err := sender.SendSMS(t.Context(), "+27", "hello")
	assert.ErrorContains(t, err, "invalid number")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = sender.SendSMS(ctx, "+27821234567", "hello")
	assert.ErrorIs(t, err, context.Canceled)
	api.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+27821234567", whatsAppAddress("+27821234567"))
	assert.Equal(t, "whatsapp:+27821234567", whatsAppAddress("whatsapp:+27821234567"))
}
