package audit

import (
	"context"
	"log/slog"
)

// Sink receives a copy of every emitted event, typically a Kafka producer.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// Worker drains the publisher's inbox into a sink. Durable persistence
// already happened in Publisher.Emit, so sink failures are logged and
// skipped rather than retried.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Send(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit stream send failed",
					"action", event.Action,
					"subject_id", event.SubjectID,
					"error", err,
				)
			}
		}
	}
}
