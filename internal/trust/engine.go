package trust

import (
	"context"
	"time"

	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// Engine maintains trust records on top of a Store
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates a trust engine
func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithStore returns an engine with the same clock that reads and writes store
func (e *Engine) WithStore(store Store) *Engine {
	return &Engine{store: store, now: e.now}
}

// Lookup returns the stored record or nil when the entity is unknown
func (e *Engine) Lookup(ctx context.Context, entityID string, entityType EntityType) (*Record, error) {
	if _, err := ParseEntityType(string(entityType)); err != nil {
		return nil, err
	}

	record, err := e.store.GetTrustRecord(ctx, entityID, entityType)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return record, nil
}

// GetOrCreate returns the stored record or a fresh default one. A fresh
// record is not persisted.
func (e *Engine) GetOrCreate(ctx context.Context, entityID string, entityType EntityType) (*Record, error) {
	record, err := e.Lookup(ctx, entityID, entityType)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = newRecord(entityID, entityType, e.now())
	}
	return record, nil
}

// Change is the outcome of applying a delta
type Change struct {
	Record        *Record
	PreviousBadge Badge
}

// BecameFlagged reports whether this change moved the record into the flagged badge
func (c *Change) BecameFlagged() bool {
	return c.PreviousBadge != BadgeFlagged && c.Record.Badge == BadgeFlagged
}

// Observe logs and counts a badge transition. Call it once the change is committed.
func (c *Change) Observe(ctx context.Context) {
	if c.PreviousBadge == c.Record.Badge {
		return
	}
	badgeTransitions.WithLabelValues(string(c.PreviousBadge), string(c.Record.Badge)).Inc()
	logger.WithContext(ctx).Info("trust badge changed",
		zap.String("entity_type", string(c.Record.EntityType)),
		zap.String("from", string(c.PreviousBadge)),
		zap.String("to", string(c.Record.Badge)),
		zap.Int("score", c.Record.Score),
	)
}

// ApplyDelta adds delta to the entity's counters, recomputes score and
// badge, and persists the result.
func (e *Engine) ApplyDelta(ctx context.Context, entityID string, entityType EntityType, delta Delta) (*Record, error) {
	change, err := e.Apply(ctx, entityID, entityType, delta)
	if err != nil {
		return nil, err
	}
	change.Observe(ctx)
	return change.Record, nil
}

// Apply is ApplyDelta that also returns the badge held before the update.
// It does not call Observe.
func (e *Engine) Apply(ctx context.Context, entityID string, entityType EntityType, delta Delta) (*Change, error) {
	if delta.Verifications < 0 || delta.Reports < 0 || delta.Transactions < 0 {
		return nil, &ValidationError{Field: "delta", Message: "counter increments must be non-negative"}
	}

	record, err := e.GetOrCreate(ctx, entityID, entityType)
	if err != nil {
		return nil, err
	}

	previous := record.Badge

	record.VerificationCount += delta.Verifications
	record.ReportCount += delta.Reports
	record.SuccessfulTransactionCount += delta.Transactions
	record.recompute()
	record.LastUpdated = e.now()

	if err := e.store.PutTrustRecord(ctx, record); err != nil {
		return nil, &StorageError{Op: "put", Err: err}
	}

	return &Change{Record: record, PreviousBadge: previous}, nil
}
