package audit

import (
	"context"
	"time"
)

// Publisher records audit events. Persistence goes through the Store so tests
// can swap sinks; an optional streaming sink (Kafka) receives a copy of every
// event via the worker.
type Publisher struct {
	store Store
	inbox chan Event
}

// NewPublisher wires a publisher over a store. The returned inbox channel
// feeds the streaming worker; pass it to NewWorker.
func NewPublisher(store Store) *Publisher {
	return &Publisher{
		store: store,
		inbox: make(chan Event, 256),
	}
}

// Emit persists the event and offers it to the streaming worker. Emission to
// the stream is best-effort; persistence is not.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
	default:
		// Stream backlog full; the durable store already has the event.
	}
	return nil
}

// Inbox exposes the stream feed for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }
