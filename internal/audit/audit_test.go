package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vaultcore/pkg/domain"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (s *captureSink) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.fail = false
		return errors.New("broker unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestEmitPersistsAndStampsTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	subjectID := id.SubjectID(uuid.New())

	err := publisher.Emit(ctx, Event{
		Action:    ActionSubjectCreated,
		TenantID:  id.TenantID(uuid.New()),
		SubjectID: subjectID,
	})
	require.NoError(t, err)

	events, err := store.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionSubjectCreated, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())

	select {
	case event := <-publisher.Inbox():
		assert.Equal(t, subjectID, event.SubjectID)
	default:
		t.Fatal("expected the emitted event on the inbox")
	}
}

func TestEmitKeepsCallerTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	subjectID := id.SubjectID(uuid.New())
	stamped := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	require.NoError(t, publisher.Emit(context.Background(), Event{
		Timestamp: stamped,
		Action:    ActionFieldsWritten,
		SubjectID: subjectID,
		Fields:    []string{"id.first_name"},
	}))

	events, err := store.ListBySubject(context.Background(), subjectID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stamped, events[0].Timestamp)
}

func TestEmitDoesNotBlockWhenStreamIsBacklogged(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	subjectID := id.SubjectID(uuid.New())

	// Fill the inbox with nobody draining it.
	for i := 0; i < 300; i++ {
		require.NoError(t, publisher.Emit(ctx, Event{
			Action:    ActionFieldsWritten,
			SubjectID: subjectID,
		}))
	}

	// Every emission persisted even though the stream dropped the overflow.
	events, err := store.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Len(t, events, 300)
}

func TestWorkerDrainsInboxIntoSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewPublisher(NewInMemoryStore())
	sink := &captureSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() {
		done <- NewWorker(publisher.Inbox(), sink, logger).Run(ctx)
	}()

	subjectID := id.SubjectID(uuid.New())
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionScopeCreated, SubjectID: subjectID}))
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionScopeCommitted, SubjectID: subjectID}))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	assert.Equal(t, ActionScopeCreated, events[0].Action)
	assert.Equal(t, ActionScopeCommitted, events[1].Action)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestWorkerSurvivesSinkFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewPublisher(NewInMemoryStore())
	sink := &captureSink{fail: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go NewWorker(publisher.Inbox(), sink, logger).Run(ctx) //nolint:errcheck

	subjectID := id.SubjectID(uuid.New())
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionSubjectCreated, SubjectID: subjectID}))
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionScopeCreated, SubjectID: subjectID}))

	// The first send fails and is dropped; the worker keeps draining.
	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, ActionScopeCreated, sink.snapshot()[0].Action)
}
