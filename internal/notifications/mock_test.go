package notifications

import (
	"context"

	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/stretchr/testify/mock"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type mockPhoneSender struct {
	mock.Mock
}

func (m *mockPhoneSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func (m *mockPhoneSender) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type mockOpsNotifier struct {
	mock.Mock
}

func (m *mockOpsNotifier) Notify(ctx context.Context, title, body string) error {
	args := m.Called(ctx, title, body)
	return args.Error(0)
}

type mockMessageCreator struct {
	mock.Mock
}

func (m *mockMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	args := m.Called(params)
	msg, _ := args.Get(0).(*twilioApi.ApiV2010Message)
	return msg, args.Error(1)
}

type mockShoutrrrSender struct {
	mock.Mock
}

func (m *mockShoutrrrSender) Send(message string, params *stypes.Params) []error {
	args := m.Called(message, params)
	errs, _ := args.Get(0).([]error)
	return errs
}
