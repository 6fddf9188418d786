package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subjects published by the community service
const (
	SubjectEntityFlagged = "community.entity.flagged"
	SubjectReportCreated = "community.report.created"
)

// Event is the envelope carried on every subject
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh ID
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Decode unmarshals the payload into v
func (e *Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Handler processes one delivered event
type Handler func(ctx context.Context, evt *Event) error

// Publisher sends events to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, evt *Event) error
}

// Subscriber registers handlers for a subject. Subscribers sharing a queue
// name split deliveries between them.
type Subscriber interface {
	Subscribe(subject, queue string, handler Handler) error
}

// Bus is a Publisher and Subscriber that must be closed
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// FlaggedEntity is the payload of SubjectEntityFlagged
type FlaggedEntity struct {
	EntityID    string    `json:"entity_id"`
	EntityType  string    `json:"entity_type"`
	TrustScore  int       `json:"trust_score"`
	ReportCount int       `json:"report_count"`
	ReportID    string    `json:"report_id"`
	ReporterID  string    `json:"reporter_id"`
	FlaggedAt   time.Time `json:"flagged_at"`
}

// ReportCreated is the payload of SubjectReportCreated
type ReportCreated struct {
	ReportID   string    `json:"report_id"`
	ReporterID string    `json:"reporter_id"`
	Category   string    `json:"category"`
	ScamType   string    `json:"scam_type"`
	RiskLevel  int       `json:"risk_level"`
	CreatedAt  time.Time `json:"created_at"`
}
