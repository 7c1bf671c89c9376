package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"vaultcore/internal/audit"
	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
	dErrors "vaultcore/pkg/domain-errors"
	"vaultcore/pkg/platform/sentinel"
)

// commitRetryLimit bounds re-planning after losing a commit race. Each retry
// observes the winner's committed state, so one retry usually settles it.
const commitRetryLimit = 5

// Commit promotes the scope's speculative, portable-eligible fields to the
// globally-visible tier, reconciling against commits other scopes made in the
// meantime.
//
// Reconciliation is evaluated against the ledger state at commit time, not
// the state the candidates were written against: committing a stale Ssn4
// after another scope portablized a Ssn9 leaves the Ssn9 in place. The seqno
// total order is the only cross-tenant coordination; no cross-tenant lock is
// ever taken.
//
// Committing twice with no intervening writes is a no-op the second time and
// allocates no seqno.
//
// Concurrent commits from other scopes are arbitrated by the ledger: a plan
// raced past (a superseded row already deactivated, or a promotion that would
// leave two active portable versions) fails with sentinel.ErrConflict, and the
// committer re-reads and re-plans against the winner's state.
func (s *Service) Commit(ctx context.Context, scopeID id.ScopeID) error {
	ctx, span := s.tracer.Start(ctx, "vault.commit")
	defer span.End()

	scope, err := s.GetScope(ctx, scopeID)
	if err != nil {
		return err
	}

	handle, err := s.locker.Acquire(ctx, scope.SubjectID, scope.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to acquire onboarding lock")
	}
	defer func() {
		if releaseErr := handle.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.logger.ErrorContext(ctx, "onboarding lock release failed",
				"scope_id", scope.ID,
				"error", releaseErr,
			)
		}
	}()

	var promoted int
	var commitSeqno models.Seqno
	for attempt := 1; ; attempt++ {
		promoted, commitSeqno = 0, 0
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			scopeRows, err := s.ledger.ActiveForScope(txCtx, scope.SubjectID, scope.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "failed to read scope rows")
			}
			portableRows, err := s.ledger.ActivePortable(txCtx, scope.SubjectID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "failed to read portable rows")
			}

			plan := planCommit(scopeRows, portableRows)
			if len(plan.promote) == 0 {
				return nil
			}

			commitSeqno, err = s.ledger.NextSeqno(txCtx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "failed to allocate commit seqno")
			}
			if err := s.ledger.Portablize(txCtx, plan.promote, plan.supersede, commitSeqno); err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorage, "failed to portablize candidates")
			}
			promoted = len(plan.promote)
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && attempt < commitRetryLimit {
			s.logger.InfoContext(ctx, "commit lost race, re-planning",
				"scope_id", scope.ID,
				"attempt", attempt,
			)
			continue
		}
		return err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionScopeCommitted,
		TenantID:  scope.TenantID,
		SubjectID: scope.SubjectID,
		ScopeID:   scope.ID,
		Seqno:     commitSeqno,
	})
	if s.metrics != nil {
		s.metrics.Commits.Inc()
		s.metrics.FieldsPortablized.Add(float64(promoted))
	}
	s.logger.InfoContext(ctx, "scope committed",
		"scope_id", scope.ID,
		"promoted", promoted,
		"commit_seqno", commitSeqno,
	)
	return nil
}

type commitPlan struct {
	promote   []uuid.UUID
	supersede []uuid.UUID
}

// planCommit decides, per candidate, promotion or skip:
//
//   - candidates are the scope's active, portable-eligible, not-yet-portable
//     rows;
//   - a candidate in a rankable group is promoted only when its completeness
//     rank beats or matches the group's currently-portable rank. In
//     terminal-top groups matching the terminal rank skips instead (the first
//     committed KYCed list wins);
//   - promotion deactivates the superseded active portable row(s) for the
//     same field or rankable group in the same step (last commit wins for
//     non-rankable fields);
//   - a skipped candidate stays merely scope-local: not promoted, not
//     deactivated.
func planCommit(scopeRows, portableRows []models.FieldVersion) commitPlan {
	var plan commitPlan

	portableByField := make(map[fields.Identifier]models.FieldVersion, len(portableRows))
	portableRankByGroup := make(map[fields.GroupID]uint8)
	for _, row := range portableRows {
		portableByField[row.Field] = row
		if rank, ok := fields.CompletenessRank(row.Field); ok {
			group := fields.GroupOf(row.Field)
			if rank > portableRankByGroup[group] {
				portableRankByGroup[group] = rank
			}
		}
	}

	for _, candidate := range scopeRows {
		if !fields.IsPortableEligible(candidate.Field) {
			continue
		}
		if candidate.PortablizedAt != nil {
			// Already on the portable tier from an earlier commit.
			continue
		}

		group := fields.GroupOf(candidate.Field)
		if rank, rankable := fields.CompletenessRank(candidate.Field); rankable {
			portableRank, exists := portableRankByGroup[group]
			if exists {
				if rank < portableRank {
					continue
				}
				if rank == portableRank && fields.IsTerminalTop(group) && rank == topRank(group) {
					continue
				}
			}
			plan.promote = append(plan.promote, candidate.ID)
			// The promoted member replaces every portable member of its
			// group, whatever their field.
			for _, member := range fields.GroupMembers(group) {
				if row, ok := portableByField[member]; ok && row.ID != candidate.ID {
					plan.supersede = append(plan.supersede, row.ID)
				}
			}
			continue
		}

		plan.promote = append(plan.promote, candidate.ID)
		if row, ok := portableByField[candidate.Field]; ok && row.ID != candidate.ID {
			plan.supersede = append(plan.supersede, row.ID)
		}
	}
	return plan
}

func topRank(group fields.GroupID) uint8 {
	var top uint8
	for _, member := range fields.GroupMembers(group) {
		if rank, ok := fields.CompletenessRank(member); ok && rank > top {
			top = rank
		}
	}
	return top
}
