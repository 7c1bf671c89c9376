// Package ledger stores field versions in an append-only, globally
// seqno-ordered log. Versions are never mutated in place and never deleted;
// supersession and promotion are recorded as seqno stamps.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
)

// Store is the ledger contract. Implementations are pure I/O; batch atomicity
// is theirs, everything else (validation, reconciliation) belongs to the
// service layer.
type Store interface {
	// NextSeqno allocates a strictly increasing, globally unique sequence
	// number. It participates in the caller's transaction when one is
	// carried in ctx, so a reader snapshotting "as of seqno S" never
	// observes a half-written batch.
	NextSeqno(ctx context.Context) (models.Seqno, error)

	// AppendBatch allocates one seqno, inserts every append of the batch at
	// that seqno, and deactivates the listed superseded rows at the same
	// seqno. All or nothing; a failed batch leaves the ledger unchanged.
	AppendBatch(ctx context.Context, batch models.WriteBatch) (models.Seqno, error)

	// ActiveForScope returns every row with no deactivation seqno for the
	// scope, including rows not yet portable.
	ActiveForScope(ctx context.Context, subject id.SubjectID, scope id.ScopeID) ([]models.FieldVersion, error)

	// ActivePortable returns every active portablized row for the subject,
	// independent of scope.
	ActivePortable(ctx context.Context, subject id.SubjectID) ([]models.FieldVersion, error)

	// Visible returns the union of the subject's active portable rows and,
	// when scope is non-nil, that scope's active rows, read at one
	// consistent point.
	Visible(ctx context.Context, subject id.SubjectID, scope *id.ScopeID) ([]models.FieldVersion, error)

	// Portablize stamps the promote rows as portable at the given seqno and
	// deactivates the superseded rows at the same seqno. Callers only pass
	// rows that are currently active. All or nothing.
	Portablize(ctx context.Context, promote, supersede []uuid.UUID, at models.Seqno) error
}
