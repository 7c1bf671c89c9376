// Package validate decides whether a proposed batch of field writes is
// admissible against a scope's current visible state.
//
// Validate is pure: it reads a snapshot, never the stores, and either returns
// the full WriteBatch to apply or the first rejection with nothing applied.
package validate

import (
	"fmt"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/snapshot"
)

// Kind classifies a validation rejection.
type Kind string

const (
	// KindUnknownField rejects identifiers outside the catalog.
	KindUnknownField Kind = "unknown_field"
	// KindCrossDomainWrite rejects fields whose domain does not match the
	// subject's.
	KindCrossDomainWrite Kind = "cross_domain_write"
	// KindCompletenessDowngrade rejects rankable-group downgrades in-scope.
	KindCompletenessDowngrade Kind = "completeness_downgrade"
	// KindImmutableField rejects writes to a terminal, write-once group.
	KindImmutableField Kind = "immutable_field"
)

// Error is a typed rejection of a whole write batch. A rejected batch has no
// side effects; the ledger is left exactly as it was.
type Error struct {
	Kind  Kind
	Field fields.Identifier
}

func (e *Error) Error() string {
	return fmt.Sprintf("write rejected (%s): %s", e.Kind, e.Field)
}

// Proposed is one field write offered for validation. Values arrive already
// sealed; the validator only reasons about identifiers.
type Proposed struct {
	Field  fields.Identifier
	Value  models.Value
	Source models.Source
}

// Validate checks the proposed writes against the scope's current snapshot
// and the subject's domain, and builds the batch to apply: every row to
// append plus every active row the batch deactivates (superseded versions and
// cleared group co-members).
//
// Checks run per proposed field in order; the first rejection wins and the
// batch is discarded as a unit.
func Validate(current *snapshot.Snapshot, scope models.Scope, subjectDomain fields.Domain, proposed []Proposed) (*models.WriteBatch, error) {
	batch := &models.WriteBatch{
		SubjectID: scope.SubjectID,
		ScopeID:   scope.ID,
	}

	inBatch := make(map[fields.Identifier]struct{}, len(proposed))
	for _, p := range proposed {
		inBatch[p.Field] = struct{}{}
	}

	deactivate := make(map[fields.Identifier]models.FieldVersion)

	for _, p := range proposed {
		f := p.Field

		if !fields.Known(f) {
			return nil, &Error{Kind: KindUnknownField, Field: f}
		}
		if !fields.DomainNeutral(f) {
			domain, _ := fields.DomainOf(f)
			if domain != subjectDomain {
				return nil, &Error{Kind: KindCrossDomainWrite, Field: f}
			}
		}

		group := fields.GroupOf(f)

		// Terminal-state groups: once the top-ranked member is active in
		// this scope, every member is write-once.
		if fields.IsTerminalTop(group) {
			if terminal, ok := topRankedActive(current, scope, group); ok && terminal {
				return nil, &Error{Kind: KindImmutableField, Field: f}
			}
		}

		// Monotonic completeness: never downgrade within the scope.
		if rank, rankable := fields.CompletenessRank(f); rankable {
			if currentRank, ok := activeGroupRank(current, scope, group); ok && rank < currentRank {
				return nil, &Error{Kind: KindCompletenessDowngrade, Field: f}
			}
		}

		// Replace-or-clear: any unwritten, currently-active co-member of the
		// group is cleared by this batch. Groups merge never, replace always.
		for member := range fields.ReplaceGroupMembers(f) {
			if _, alsoWritten := inBatch[member]; alsoWritten {
				continue
			}
			if row, ok := scopeActiveVersion(current, scope, member); ok {
				deactivate[member] = row
			}
		}

		// A new version supersedes the scope's prior active version.
		if row, ok := scopeActiveVersion(current, scope, f); ok {
			deactivate[f] = row
		}

		batch.Appends = append(batch.Appends, models.ProposedWrite{
			Field:  f,
			Value:  p.Value,
			Source: p.Source,
		})
	}

	for _, row := range deactivate {
		batch.Deactivate = append(batch.Deactivate, row.ID)
	}
	return batch, nil
}

// scopeActiveVersion returns the scope-owned active row for a field, ignoring
// rows visible only through the portable tier: clearing and superseding act
// on this scope's ledger rows, never on another tenant's portable data.
func scopeActiveVersion(current *snapshot.Snapshot, scope models.Scope, f fields.Identifier) (models.FieldVersion, bool) {
	row, ok := current.Version(f)
	if !ok || row.ScopeID == nil || *row.ScopeID != scope.ID {
		return models.FieldVersion{}, false
	}
	return row, true
}

// activeGroupRank returns the completeness rank of the scope's active member
// of a rankable group.
func activeGroupRank(current *snapshot.Snapshot, scope models.Scope, group fields.GroupID) (uint8, bool) {
	var best uint8
	found := false
	for _, member := range fields.GroupMembers(group) {
		if _, ok := scopeActiveVersion(current, scope, member); !ok {
			continue
		}
		if rank, rankable := fields.CompletenessRank(member); rankable && rank > best {
			best = rank
			found = true
		}
	}
	return best, found
}

// topRankedActive reports whether the scope's active member of the group is
// the group's highest rank.
func topRankedActive(current *snapshot.Snapshot, scope models.Scope, group fields.GroupID) (bool, bool) {
	rank, ok := activeGroupRank(current, scope, group)
	if !ok {
		return false, false
	}
	var top uint8
	for _, member := range fields.GroupMembers(group) {
		if r, rankable := fields.CompletenessRank(member); rankable && r > top {
			top = r
		}
	}
	return rank == top, true
}
