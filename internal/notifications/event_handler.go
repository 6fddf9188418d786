package notifications

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/pkg/eventbus"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

const alertsQueue = "notifications-alerts"

// EventHandler turns community events into alerts
type EventHandler struct {
	service *AlertService
}

// NewEventHandler creates an event handler backed by the alert service
func NewEventHandler(service *AlertService) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterSubscriptions subscribes to flagged-entity events on the bus
func (h *EventHandler) RegisterSubscriptions(bus eventbus.Subscriber) error {
	if err := bus.Subscribe(eventbus.SubjectEntityFlagged, alertsQueue, h.handleEntityFlagged); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.SubjectEntityFlagged, err)
	}
	logger.Info("notifications: subscribed to flagged entity events")
	return nil
}

func (h *EventHandler) handleEntityFlagged(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.FlaggedEntity
	if err := event.Decode(&data); err != nil {
		return err
	}

	alert := Alert{
		Type:       AlertHighRiskEntity,
		Severity:   SeverityHigh,
		EntityType: data.EntityType,
		EntityID:   data.EntityID,
		Metadata: map[string]string{
			"report_count": strconv.Itoa(data.ReportCount),
			"trust_score":  strconv.Itoa(data.TrustScore),
			"report_id":    data.ReportID,
		},
	}
	// the reporter whose report tipped the entity over hears about it
	if reporter, err := uuid.Parse(data.ReporterID); err == nil {
		alert.Recipients = append(alert.Recipients, reporter)
	}

	if _, err := h.service.SendSuspiciousActivityAlert(ctx, alert); err != nil {
		logger.WithContext(ctx).Warn("failed to send high risk entity alert",
			zap.String("entity_id", data.EntityID),
			zap.String("entity_type", data.EntityType),
			zap.Error(err),
		)
	}
	return nil
}
