package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists subscribers and the delivery log
type Repository interface {
	GetSubscriber(ctx context.Context, userID uuid.UUID) (*Subscriber, error)
	PutSubscriber(ctx context.Context, sub *Subscriber) error
	RecordDelivery(ctx context.Context, d *Delivery) error
	ListDeliveries(ctx context.Context, userID uuid.UUID, limit int) ([]*Delivery, error)
}

// PhoneSender delivers text to a phone number over SMS or WhatsApp
type PhoneSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// OpsNotifier posts alerts to operator channels such as Slack or Telegram
type OpsNotifier interface {
	Notify(ctx context.Context, title, body string) error
}
