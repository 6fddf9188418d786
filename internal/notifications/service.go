package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/i18n"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/resilience"
	"go.uber.org/zap"
)

const maxDeliveryHistory = 50

// AlertService renders alerts in each subscriber's language and delivers
// them over the channels the subscriber enabled
type AlertService struct {
	repo        Repository
	phone       PhoneSender
	ops         OpsNotifier
	breaker     *resilience.CircuitBreaker
	defaultLang string
	now         func() time.Time
}

// NewAlertService creates an alert service. phone and ops may be nil.
func NewAlertService(repo Repository, phone PhoneSender, ops OpsNotifier, defaultLang string) *AlertService {
	return &AlertService{
		repo:        repo,
		phone:       phone,
		ops:         ops,
		defaultLang: i18n.ResolveLang(defaultLang),
		now:         time.Now,
	}
}

// SetCircuitBreaker guards phone deliveries
func (s *AlertService) SetCircuitBreaker(breaker *resilience.CircuitBreaker) {
	s.breaker = breaker
}

// ========================================
// PREFERENCES
// ========================================

// GetSubscriber returns the caller's settings, or defaults when none were saved
func (s *AlertService) GetSubscriber(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	sub, err := s.repo.GetSubscriber(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError("failed to load alert settings", err)
	}
	if sub == nil {
		sub = &Subscriber{UserID: userID, Language: s.defaultLang, Preferences: DefaultPreferences()}
	}
	return sub, nil
}

// UpdateSubscriber merges req into the caller's settings
func (s *AlertService) UpdateSubscriber(ctx context.Context, userID uuid.UUID, req *UpdatePreferencesRequest) (*Subscriber, error) {
	sub, err := s.GetSubscriber(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != "" {
		sub.PhoneNumber = req.PhoneNumber
	}
	if req.Email != "" {
		sub.Email = req.Email
	}
	if req.Language != "" {
		sub.Language = req.Language
	}
	if req.Preferences != nil {
		sub.Preferences = *req.Preferences
	}
	if (sub.Preferences.SMS || sub.Preferences.WhatsApp) && sub.PhoneNumber == "" {
		return nil, common.NewBadRequestError("phone_number is required for SMS or WhatsApp alerts", nil)
	}
	sub.UpdatedAt = s.now()

	if err := s.repo.PutSubscriber(ctx, sub); err != nil {
		return nil, common.NewInternalError("failed to save alert settings", err)
	}
	return sub, nil
}

// ListDeliveries returns the caller's recent alert deliveries
func (s *AlertService) ListDeliveries(ctx context.Context, userID uuid.UUID) ([]*Delivery, error) {
	deliveries, err := s.repo.ListDeliveries(ctx, userID, maxDeliveryHistory)
	if err != nil {
		return nil, common.NewInternalError("failed to list alert deliveries", err)
	}
	return deliveries, nil
}

// ========================================
// DELIVERY
// ========================================

// SendSuspiciousActivityAlert delivers alert to each recipient that opted in,
// then to the operator channels. Delivery failures are logged and counted;
// only a failure to load a subscriber is returned.
func (s *AlertService) SendSuspiciousActivityAlert(ctx context.Context, alert Alert) (*DeliverySummary, error) {
	if alert.Severity == "" {
		alert.Severity = SeverityMedium
	}
	summary := &DeliverySummary{}

	for _, userID := range alert.Recipients {
		sub, err := s.repo.GetSubscriber(ctx, userID)
		if err != nil {
			return summary, fmt.Errorf("load subscriber %s: %w", userID, err)
		}
		if sub == nil || !sub.Preferences.Wants(alert.Type) {
			continue
		}

		text := s.render(alert, s.langFor(sub))
		if sub.Preferences.SMS {
			s.deliver(ctx, summary, alert, &sub.UserID, ChannelSMS, sub.PhoneNumber, func() error {
				_, err := s.phone.SendSMS(ctx, sub.PhoneNumber, text)
				return err
			})
		}
		if sub.Preferences.WhatsApp {
			s.deliver(ctx, summary, alert, &sub.UserID, ChannelWhatsApp, sub.PhoneNumber, func() error {
				_, err := s.phone.SendWhatsApp(ctx, sub.PhoneNumber, text)
				return err
			})
		}
	}

	if s.ops != nil {
		key := "alert." + string(alert.Type) + ".title"
		title := i18n.Translate(key, i18n.DefaultLang)
		if title == key {
			title = i18n.Translate("alert.suspicious_activity.title", i18n.DefaultLang)
		}
		body := s.render(alert, i18n.DefaultLang)
		s.deliver(ctx, summary, alert, nil, ChannelOps, "ops", func() error {
			return s.ops.Notify(ctx, title, body)
		})
	}

	logger.WithContext(ctx).Info("alert dispatched",
		zap.String("alert_type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *AlertService) deliver(ctx context.Context, summary *DeliverySummary, alert Alert, userID *uuid.UUID, channel Channel, target string, send func() error) {
	d := &Delivery{
		ID:        uuid.New(),
		UserID:    userID,
		AlertType: alert.Type,
		Channel:   channel,
		CreatedAt: s.now(),
	}

	var err error
	switch {
	case channel != ChannelOps && (s.phone == nil || target == ""):
		d.Status = DeliverySkipped
		d.Error = "no phone channel configured"
		if target == "" {
			d.Error = "no phone number on file"
		}
		summary.Skipped++
	default:
		err = s.execute(ctx, channel, send)
		if err != nil {
			d.Status = DeliveryFailed
			d.Error = err.Error()
			summary.Failed++
		} else {
			d.Status = DeliverySent
			summary.Sent++
		}
	}
	alertDeliveries.WithLabelValues(string(channel), d.Status).Inc()

	if err != nil {
		logger.WithContext(ctx).Warn("alert delivery failed",
			zap.String("alert_type", string(alert.Type)),
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
	}
	if recErr := s.repo.RecordDelivery(ctx, d); recErr != nil {
		logger.WithContext(ctx).Error("failed to record alert delivery",
			zap.String("delivery_id", d.ID.String()),
			zap.Error(recErr),
		)
	}
}

func (s *AlertService) execute(ctx context.Context, channel Channel, send func() error) error {
	if s.breaker == nil || channel == ChannelOps {
		return send()
	}
	_, err := s.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, send()
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%s channel unavailable: %w", channel, err)
	}
	return err
}

func (s *AlertService) langFor(sub *Subscriber) string {
	if sub.Language == "" {
		return s.defaultLang
	}
	return i18n.ResolveLang(sub.Language)
}

// render builds the localized message body for lang
func (s *AlertService) render(alert Alert, lang string) string {
	var body string
	switch alert.Type {
	case AlertHighRiskEntity:
		reports, _ := strconv.Atoi(alert.Metadata["report_count"])
		body = i18n.Translate("alert.high_risk_entity.body", lang, alert.EntityType, alert.EntityID, reports)
	case AlertPaymentUnverified:
		body = i18n.Translate("alert.payment_unverified.body", lang,
			alert.Metadata["amount"], alert.Metadata["reference"])
	default:
		title := alert.Title
		if title == "" {
			title = i18n.Translate("alert.suspicious_activity.title", lang)
		}
		body = i18n.Translate("alert.suspicious_activity.body", lang,
			i18n.Translate("severity."+string(alert.Severity), lang), title, alert.Message)
	}
	return body + "\n\n" + i18n.Translate("alert.footer", lang)
}
