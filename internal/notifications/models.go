package notifications

import (
	"time"

	"github.com/google/uuid"
)

// AlertType identifies what an alert is about
type AlertType string

const (
	AlertSuspiciousActivity AlertType = "suspicious_activity"
	AlertHighRiskEntity     AlertType = "high_risk_entity"
	AlertPaymentUnverified  AlertType = "payment_unverified"
	AlertDocument           AlertType = "document"
)

// Severity of an alert
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Channel is a delivery route
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelOps      Channel = "ops"
)

// Delivery statuses
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// Preferences are a subscriber's alert settings
type Preferences struct {
	Email               bool `json:"email"`
	WhatsApp            bool `json:"whatsapp"`
	SMS                 bool `json:"sms"`
	SuspiciousActivity  bool `json:"suspicious_activity"`
	PaymentVerification bool `json:"payment_verification"`
	DocumentAlerts      bool `json:"document_alerts"`
	DailySummary        bool `json:"daily_summary"`
}

// DefaultPreferences: email on, phone channels off, every alert kind on
func DefaultPreferences() Preferences {
	return Preferences{
		Email:               true,
		SuspiciousActivity:  true,
		PaymentVerification: true,
		DocumentAlerts:      true,
		DailySummary:        true,
	}
}

// Wants reports whether the subscriber opted into alerts of type t
func (p Preferences) Wants(t AlertType) bool {
	switch t {
	case AlertSuspiciousActivity, AlertHighRiskEntity:
		return p.SuspiciousActivity
	case AlertPaymentUnverified:
		return p.PaymentVerification
	case AlertDocument:
		return p.DocumentAlerts
	}
	return false
}

// Subscriber is a user's contact details and preferences
type Subscriber struct {
	UserID      uuid.UUID   `json:"user_id"`
	PhoneNumber string      `json:"phone_number"`
	Email       string      `json:"email"`
	Language    string      `json:"language"`
	Preferences Preferences `json:"preferences"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Alert is one event to tell people about
type Alert struct {
	Type       AlertType         `json:"type"`
	Severity   Severity          `json:"severity"`
	Recipients []uuid.UUID       `json:"recipients"`
	EntityType string            `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Message    string            `json:"message,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Delivery is the log line of one delivery attempt
type Delivery struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	AlertType AlertType  `json:"alert_type"`
	Channel   Channel    `json:"channel"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DeliverySummary counts the outcome of one alert
type DeliverySummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// UpdatePreferencesRequest is the body of PUT /api/v1/me/alerts
type UpdatePreferencesRequest struct {
	PhoneNumber string       `json:"phone_number" validate:"omitempty,e164"`
	Email       string       `json:"email" validate:"omitempty,email"`
	Language    string       `json:"language" validate:"omitempty,oneof=en af zu"`
	Preferences *Preferences `json:"preferences"`
}
