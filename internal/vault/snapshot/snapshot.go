// Package snapshot materializes the currently-visible field map of a subject.
//
// Two visibility regimes exist: ForScope unions the subject's portable tier
// with one scope's speculative rows (scope rows win per field), and
// ForSubjectGlobal exposes only the portable tier. A Snapshot is a read-only
// value pinned at the seqno ceiling observed when it was built.
package snapshot

import (
	"context"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/store/ledger"
	id "vaultcore/pkg/domain"
)

// Mode selects the visibility regime of a snapshot.
type Mode struct {
	scope *id.ScopeID
}

// ForScope shows the portable tier overlaid with the scope's own active rows.
// This is the view a tenant sees while onboarding a subject.
func ForScope(scope id.ScopeID) Mode { return Mode{scope: &scope} }

// ForSubjectGlobal shows only the portable tier: the cross-tenant view a
// brand-new scope starts from.
func ForSubjectGlobal() Mode { return Mode{} }

// Snapshot is a point-in-time, read-only field map. It never mixes rows from
// different logical points: all rows were read at one consistent store
// snapshot and the seqno ceiling records that point.
type Snapshot struct {
	subject id.SubjectID
	byField map[fields.Identifier]models.FieldVersion
	ceiling models.Seqno
}

// Builder materializes snapshots from the ledger.
type Builder struct {
	ledger ledger.Store
}

func NewBuilder(ledgerStore ledger.Store) *Builder {
	return &Builder{ledger: ledgerStore}
}

// Build materializes the visible field map for the subject under the given
// mode. Against an unchanged ledger, repeated calls return identical results.
func (b *Builder) Build(ctx context.Context, subject id.SubjectID, mode Mode) (*Snapshot, error) {
	rows, err := b.ledger.Visible(ctx, subject, mode.scope)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		subject: subject,
		byField: make(map[fields.Identifier]models.FieldVersion, len(rows)),
	}
	for _, row := range rows {
		if row.SeqnoCreated > snap.ceiling {
			snap.ceiling = row.SeqnoCreated
		}
		current, exists := snap.byField[row.Field]
		if !exists {
			snap.byField[row.Field] = row
			continue
		}
		// Scope-local rows take precedence over a portable row for the same
		// field: a tenant always sees its own most recent write.
		if scopeOwned(row, mode.scope) && !scopeOwned(current, mode.scope) {
			snap.byField[row.Field] = row
			continue
		}
		if scopeOwned(row, mode.scope) == scopeOwned(current, mode.scope) && row.SeqnoCreated > current.SeqnoCreated {
			snap.byField[row.Field] = row
		}
	}
	return snap, nil
}

func scopeOwned(row models.FieldVersion, scope *id.ScopeID) bool {
	return scope != nil && row.ScopeID != nil && *row.ScopeID == *scope
}

// Get returns the visible value for a field.
func (s *Snapshot) Get(f fields.Identifier) (models.Value, bool) {
	row, ok := s.byField[f]
	if !ok {
		return models.Value{}, false
	}
	return row.Value, true
}

// Has reports whether the field is visible.
func (s *Snapshot) Has(f fields.Identifier) bool {
	_, ok := s.byField[f]
	return ok
}

// Version returns the full visible row for a field. The validator and the
// committer need row identity, not just the value.
func (s *Snapshot) Version(f fields.Identifier) (models.FieldVersion, bool) {
	row, ok := s.byField[f]
	return row, ok
}

// Fields returns the visible field identifiers.
func (s *Snapshot) Fields() []fields.Identifier {
	out := make([]fields.Identifier, 0, len(s.byField))
	for f := range s.byField {
		out = append(out, f)
	}
	return out
}

// Flatten returns the field→value map consumed by the rule engine and other
// read-only collaborators.
func (s *Snapshot) Flatten() map[fields.Identifier]models.Value {
	out := make(map[fields.Identifier]models.Value, len(s.byField))
	for f, row := range s.byField {
		out[f] = row.Value
	}
	return out
}

// Subject returns the snapshot's owner.
func (s *Snapshot) Subject() id.SubjectID { return s.subject }

// Ceiling returns the highest seqno observed when the snapshot was built.
func (s *Snapshot) Ceiling() models.Seqno { return s.ceiling }
