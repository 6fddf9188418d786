package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores subscribers and deliveries in PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository on pool
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetSubscriber returns nil, nil for a user without alert settings
func (r *PostgresRepository) GetSubscriber(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	query := `
		SELECT user_id, phone_number, email, language,
		       email_enabled, whatsapp_enabled, sms_enabled,
		       suspicious_activity, payment_verification, document_alerts, daily_summary,
		       updated_at
		FROM alert_subscribers
		WHERE user_id = $1
	`

	sub := &Subscriber{}
	p := &sub.Preferences
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.UserID, &sub.PhoneNumber, &sub.Email, &sub.Language,
		&p.Email, &p.WhatsApp, &p.SMS,
		&p.SuspiciousActivity, &p.PaymentVerification, &p.DocumentAlerts, &p.DailySummary,
		&sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return sub, nil
}

// PutSubscriber upserts a subscriber
func (r *PostgresRepository) PutSubscriber(ctx context.Context, sub *Subscriber) error {
	query := `
		INSERT INTO alert_subscribers (
			user_id, phone_number, email, language,
			email_enabled, whatsapp_enabled, sms_enabled,
			suspicious_activity, payment_verification, document_alerts, daily_summary,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			language = EXCLUDED.language,
			email_enabled = EXCLUDED.email_enabled,
			whatsapp_enabled = EXCLUDED.whatsapp_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			suspicious_activity = EXCLUDED.suspicious_activity,
			payment_verification = EXCLUDED.payment_verification,
			document_alerts = EXCLUDED.document_alerts,
			daily_summary = EXCLUDED.daily_summary,
			updated_at = EXCLUDED.updated_at
	`

	p := sub.Preferences
	_, err := r.db.Exec(ctx, query,
		sub.UserID, sub.PhoneNumber, sub.Email, sub.Language,
		p.Email, p.WhatsApp, p.SMS,
		p.SuspiciousActivity, p.PaymentVerification, p.DocumentAlerts, p.DailySummary,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}
	return nil
}

// RecordDelivery appends to the delivery log
func (r *PostgresRepository) RecordDelivery(ctx context.Context, d *Delivery) error {
	query := `
		INSERT INTO alert_deliveries (id, user_id, alert_type, channel, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query, d.ID, d.UserID, d.AlertType, d.Channel, d.Status, d.Error, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns a user's most recent deliveries
func (r *PostgresRepository) ListDeliveries(ctx context.Context, userID uuid.UUID, limit int) ([]*Delivery, error) {
	query := `
		SELECT id, user_id, alert_type, channel, status, error, created_at
		FROM alert_deliveries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]*Delivery, 0)
	for rows.Next() {
		d := &Delivery{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.AlertType, &d.Channel, &d.Status, &d.Error, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
