package lock

import (
	"context"
	"sync"

	id "vaultcore/pkg/domain"
)

// InMemory is a keyed mutex for single-process deployments and tests.
// Waiters queue on a per-key channel; entries are dropped once the last
// waiter releases so the map does not grow with subject count.
type InMemory struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewInMemory() *InMemory {
	return &InMemory{locks: make(map[string]*entry)}
}

func (l *InMemory) Acquire(ctx context.Context, subject id.SubjectID, scope id.ScopeID) (Handle, error) {
	k := key(subject, scope)

	l.mu.Lock()
	e, ok := l.locks[k]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		e.ch <- struct{}{}
		l.locks[k] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case <-e.ch:
		return &memoryHandle{locker: l, key: k, entry: e}, nil
	case <-ctx.Done():
		l.unref(k, e)
		return nil, ctx.Err()
	}
}

func (l *InMemory) unref(k string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, k)
	}
}

type memoryHandle struct {
	locker *InMemory
	key    string
	entry  *entry
	once   sync.Once
}

func (h *memoryHandle) Release(ctx context.Context) error {
	h.once.Do(func() {
		h.entry.ch <- struct{}{}
		h.locker.unref(h.key, h.entry)
	})
	return nil
}
