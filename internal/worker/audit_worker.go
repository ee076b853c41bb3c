// Package worker consumes the mutation event feed and turns it into a
// durable audit trail with running per-type counters.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
)

// AuditWorker records every consumed event and keeps per-type counters
// for operational visibility.
type AuditWorker struct {
	logger *log.Logger

	mu     sync.Mutex
	counts map[string]int64
	last   time.Time
}

func NewAuditWorker(logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		logger: logger.WithComponent(log.ComponentWorker),
		counts: make(map[string]int64),
	}
}

var knownEventTypes = map[string]struct{}{
	amqp.EventTransactionAdded:   {},
	amqp.EventTransactionEdited:  {},
	amqp.EventTransactionDeleted: {},
	amqp.EventCategoryAdded:      {},
	amqp.EventCategoryDeleted:    {},
	amqp.EventExpenseShared:      {},
	amqp.EventExpenseUnshared:    {},
	amqp.EventFriendAdded:        {},
	amqp.EventFriendRemoved:      {},
}

// HandleEvent processes a single event from the feed. Unknown event
// types fail so the delivery is not acknowledged silently.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	if event == nil {
		return fmt.Errorf("nil event")
	}
	if _, ok := knownEventTypes[event.Type]; !ok {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.UserID == "" {
		return fmt.Errorf("event %s missing user id", event.Type)
	}

	w.mu.Lock()
	w.counts[event.Type]++
	w.last = time.Now()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Audit event",
		log.FieldEventType, event.Type,
		log.FieldUserID, event.UserID,
		"entity_id", event.EntityID,
		log.FieldAmountCents, event.AmountCents,
		"emitted_at", event.Timestamp)
	return nil
}

// Counts returns a copy of the per-type counters.
func (w *AuditWorker) Counts() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]int64, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// LastEventAt returns the time the most recent event was recorded.
func (w *AuditWorker) LastEventAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run consumes the feed until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeEvents(ctx, func(event *amqp.Event) error {
		return w.HandleEvent(ctx, event)
	})
}
