// Package lock serializes the read-validate-append-commit critical section
// for one (subject, scope) pair.
//
// The lock exists so a single tenant's flow cannot race itself into lost
// updates. It is never held across tenants: two scopes on the same subject
// write and commit fully concurrently, and cross-tenant correctness comes
// from the committer's seqno-ordered reconciliation, not from exclusion.
package lock

import (
	"context"

	id "vaultcore/pkg/domain"
)

// Locker acquires the onboarding lock for a (subject, scope) pair.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// handle must be released on every exit path.
	Acquire(ctx context.Context, subject id.SubjectID, scope id.ScopeID) (Handle, error)
}

// Handle is a held lock.
type Handle interface {
	Release(ctx context.Context) error
}

func key(subject id.SubjectID, scope id.ScopeID) string {
	return subject.String() + "/" + scope.String()
}
