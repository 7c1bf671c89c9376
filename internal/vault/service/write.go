package service

import (
	"context"
	"errors"

	"vaultcore/internal/audit"
	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/snapshot"
	"vaultcore/internal/vault/validate"
	id "vaultcore/pkg/domain"
	dErrors "vaultcore/pkg/domain-errors"
)

// FieldWrite is one plaintext field value offered by a caller. The service
// seals it before it reaches the ledger.
type FieldWrite struct {
	Field  fields.Identifier
	Value  string
	Source models.Source
}

// WriteFields validates and appends a batch of fields to the scope's
// speculative tier. The whole batch is accepted or rejected as a unit; a
// rejection is indistinguishable, from the ledger's perspective, from a batch
// that was never submitted.
//
// The (subject, scope) onboarding lock is held across read-validate-append so
// a single tenant's flow cannot race itself. Other scopes on the same subject
// are unaffected.
func (s *Service) WriteFields(ctx context.Context, scopeID id.ScopeID, writes []FieldWrite) (models.Seqno, error) {
	ctx, span := s.tracer.Start(ctx, "vault.write_fields")
	defer span.End()

	if len(writes) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "write batch cannot be empty")
	}

	scope, err := s.GetScope(ctx, scopeID)
	if err != nil {
		return 0, err
	}
	subj, err := s.findSubject(ctx, scope.SubjectID)
	if err != nil {
		return 0, err
	}

	handle, err := s.locker.Acquire(ctx, scope.SubjectID, scope.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to acquire onboarding lock")
	}
	defer func() {
		if releaseErr := handle.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.logger.ErrorContext(ctx, "onboarding lock release failed",
				"scope_id", scope.ID,
				"error", releaseErr,
			)
		}
	}()

	proposed, err := s.sealWrites(writes)
	if err != nil {
		return 0, err
	}

	var seqno models.Seqno
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.snapshots.Build(txCtx, scope.SubjectID, snapshot.ForScope(scope.ID))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to snapshot current state")
		}

		batch, err := validate.Validate(current, *scope, subj.Domain, proposed)
		if err != nil {
			return err
		}

		seqno, err = s.ledger.AppendBatch(txCtx, *batch)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to append write batch")
		}
		return nil
	})
	if err != nil {
		s.countRejection(err)
		return 0, err
	}

	fieldNames := make([]string, 0, len(writes))
	for _, w := range writes {
		fieldNames = append(fieldNames, w.Field.String())
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionFieldsWritten,
		TenantID:  scope.TenantID,
		SubjectID: scope.SubjectID,
		ScopeID:   scope.ID,
		Seqno:     seqno,
		Fields:    fieldNames,
	})
	if s.metrics != nil {
		s.metrics.FieldsWritten.Add(float64(len(writes)))
	}
	s.logger.InfoContext(ctx, "fields written",
		"scope_id", scope.ID,
		"seqno", seqno,
		"fields", len(writes),
	)
	return seqno, nil
}

func (s *Service) sealWrites(writes []FieldWrite) ([]validate.Proposed, error) {
	proposed := make([]validate.Proposed, 0, len(writes))
	for _, w := range writes {
		sealed, err := s.sealer.Seal(w.Field.String(), []byte(w.Value))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal value")
		}
		value := models.Value{Sealed: sealed}
		if fields.StoresPlaintext(w.Field) {
			plaintext := w.Value
			value.Plaintext = &plaintext
		}
		source := w.Source
		if source == "" {
			source = models.SourceAPI
		}
		proposed = append(proposed, validate.Proposed{
			Field:  w.Field,
			Value:  value,
			Source: source,
		})
	}
	return proposed, nil
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	var vErr *validate.Error
	if errors.As(err, &vErr) {
		s.metrics.WriteRejections.WithLabelValues(string(vErr.Kind)).Inc()
	}
}
