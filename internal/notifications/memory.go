package notifications

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps subscribers and deliveries in process
type MemoryRepository struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]Subscriber
	deliveries  []Delivery
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{subscribers: make(map[uuid.UUID]Subscriber)}
}

func (r *MemoryRepository) GetSubscriber(_ context.Context, userID uuid.UUID) (*Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subscribers[userID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (r *MemoryRepository) PutSubscriber(_ context.Context, sub *Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[sub.UserID] = *sub
	return nil
}

func (r *MemoryRepository) RecordDelivery(_ context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, *d)
	return nil
}

func (r *MemoryRepository) ListDeliveries(_ context.Context, userID uuid.UUID, limit int) ([]*Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Delivery, 0)
	for i := range r.deliveries {
		d := r.deliveries[i]
		if d.UserID != nil && *d.UserID == userID {
			out = append(out, &d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
