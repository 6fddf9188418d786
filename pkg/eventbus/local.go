package eventbus

import (
	"context"
	"errors"
	"sync"

	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing on a closed LocalBus
var ErrClosed = errors.New("event bus closed")

// LocalBus dispatches events in-process. It backs single-node deployments
// without NATS. Each queue group receives every event once.
type LocalBus struct {
	mu     sync.RWMutex
	groups map[string]map[string]Handler // subject -> queue -> handler
	closed bool
	wg     sync.WaitGroup
}

var _ Bus = (*LocalBus)(nil)

// NewLocalBus creates an empty in-process bus
func NewLocalBus() *LocalBus {
	return &LocalBus{groups: make(map[string]map[string]Handler)}
}

// Publish hands evt to every queue group on subject asynchronously
func (b *LocalBus) Publish(ctx context.Context, subject string, evt *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	for queue, handler := range b.groups[subject] {
		b.wg.Add(1)
		go func(queue string, handler Handler) {
			defer b.wg.Done()
			// Detached from the publisher's request
			hctx := context.WithoutCancel(ctx)
			if err := handler(hctx, evt); err != nil {
				logger.Error("event handler failed",
					zap.String("subject", subject),
					zap.String("queue", queue),
					zap.String("event_id", evt.ID),
					zap.Error(err),
				)
			}
		}(queue, handler)
	}
	return nil
}

// Subscribe registers handler; a second handler for the same queue replaces the first
func (b *LocalBus) Subscribe(subject, queue string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.groups[subject] == nil {
		b.groups[subject] = make(map[string]Handler)
	}
	b.groups[subject][queue] = handler
	return nil
}

// Close rejects new events and waits for in-flight handlers
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
