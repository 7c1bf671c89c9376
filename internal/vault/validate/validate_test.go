package validate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/snapshot"
	"vaultcore/internal/vault/store/ledger"
	id "vaultcore/pkg/domain"
)

type ValidateSuite struct {
	suite.Suite
	ctx     context.Context
	store   *ledger.InMemory
	builder *snapshot.Builder
	subject id.SubjectID
	scope   models.Scope
}

func TestValidateSuite(t *testing.T) {
	suite.Run(t, new(ValidateSuite))
}

func (s *ValidateSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.NewInMemory()
	s.builder = snapshot.NewBuilder(s.store)
	s.subject = id.SubjectID(uuid.New())
	s.scope = models.Scope{
		ID:        id.ScopeID(uuid.New()),
		SubjectID: s.subject,
		TenantID:  id.TenantID(uuid.New()),
	}
}

func (s *ValidateSuite) snapshot() *snapshot.Snapshot {
	snap, err := s.builder.Build(s.ctx, s.subject, snapshot.ForScope(s.scope.ID))
	s.Require().NoError(err)
	return snap
}

func (s *ValidateSuite) write(fs ...fields.Identifier) {
	batch, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fs...))
	s.Require().NoError(err)
	_, err = s.store.AppendBatch(s.ctx, *batch)
	s.Require().NoError(err)
}

func proposed(fs ...fields.Identifier) []Proposed {
	out := make([]Proposed, 0, len(fs))
	for _, f := range fs {
		out = append(out, Proposed{
			Field:  f,
			Value:  models.Value{Sealed: []byte(f)},
			Source: models.SourceAPI,
		})
	}
	return out
}

func (s *ValidateSuite) TestRejections() {
	s.Run("unknown field", func() {
		_, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed("id.no_such_field"))
		assertRejection(s.T(), err, KindUnknownField, "id.no_such_field")
	})

	s.Run("cross domain write", func() {
		_, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.BusinessTin))
		assertRejection(s.T(), err, KindCrossDomainWrite, fields.BusinessTin)

		_, err = Validate(s.snapshot(), s.scope, fields.DomainBusiness, proposed(fields.Ssn9))
		assertRejection(s.T(), err, KindCrossDomainWrite, fields.Ssn9)
	})

	s.Run("custom and document fields match either domain", func() {
		for _, domain := range []fields.Domain{fields.DomainPerson, fields.DomainBusiness} {
			_, err := Validate(s.snapshot(), s.scope, domain, proposed(fields.Custom("notes"), fields.Document("selfie")))
			s.NoError(err)
		}
	})

	s.Run("completeness downgrade", func() {
		s.write(fields.Ssn9)

		_, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Ssn4))
		assertRejection(s.T(), err, KindCompletenessDowngrade, fields.Ssn4)
	})

	s.Run("first rejection wins", func() {
		_, err := Validate(s.snapshot(), s.scope, fields.DomainPerson,
			proposed(fields.FirstName, "id.bogus", fields.BusinessTin))
		assertRejection(s.T(), err, KindUnknownField, "id.bogus")
	})
}

func (s *ValidateSuite) TestImmutableTerminalGroup() {
	batch, err := Validate(s.snapshot(), s.scope, fields.DomainBusiness, proposed(fields.KycedBeneficialOwners))
	s.Require().NoError(err)
	_, err = s.store.AppendBatch(s.ctx, *batch)
	s.Require().NoError(err)

	// Terminal state reached: every member of the group is now write-once.
	_, err = Validate(s.snapshot(), s.scope, fields.DomainBusiness, proposed(fields.KycedBeneficialOwners))
	assertRejection(s.T(), err, KindImmutableField, fields.KycedBeneficialOwners)

	_, err = Validate(s.snapshot(), s.scope, fields.DomainBusiness, proposed(fields.BeneficialOwners))
	assertRejection(s.T(), err, KindImmutableField, fields.BeneficialOwners)
}

func (s *ValidateSuite) TestNonTerminalRankAllowsUpgradeAndRewrite() {
	s.write(fields.Ssn4)

	// Same rank rewrites and upgrades are both fine; only downgrades reject.
	_, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Ssn4))
	s.NoError(err)
	_, err = Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Ssn9))
	s.NoError(err)
}

func (s *ValidateSuite) TestGroupReplaceClearsUnwrittenMembers() {
	s.write(fields.AddressLine1, fields.AddressLine2, fields.City, fields.State, fields.Zip, fields.Country)

	// Rewriting the address without line 2 clears the stale line 2 row in
	// the same batch.
	batch, err := Validate(s.snapshot(), s.scope, fields.DomainPerson,
		proposed(fields.AddressLine1, fields.City, fields.State, fields.Zip, fields.Country))
	s.Require().NoError(err)

	// 5 superseded rewrites plus the cleared AddressLine2 row.
	s.Len(batch.Appends, 5)
	s.Len(batch.Deactivate, 6)

	_, err = s.store.AppendBatch(s.ctx, *batch)
	s.Require().NoError(err)

	snap := s.snapshot()
	s.True(snap.Has(fields.AddressLine1))
	s.False(snap.Has(fields.AddressLine2))
}

func (s *ValidateSuite) TestRankableGroupReplacesAsUnit() {
	s.write(fields.Ssn4)

	batch, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Ssn9))
	s.Require().NoError(err)
	s.Len(batch.Deactivate, 1, "upgrading ssn9 clears the ssn4 row")

	_, err = s.store.AppendBatch(s.ctx, *batch)
	s.Require().NoError(err)

	snap := s.snapshot()
	s.True(snap.Has(fields.Ssn9))
	s.False(snap.Has(fields.Ssn4))
}

func (s *ValidateSuite) TestSupersedesOwnPriorVersion() {
	s.write(fields.Email)

	batch, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Email))
	s.Require().NoError(err)
	s.Len(batch.Appends, 1)
	s.Len(batch.Deactivate, 1)
}

func (s *ValidateSuite) TestDoesNotDeactivatePortableRowsOfOtherScopes() {
	// Another scope's committed row is visible but not ours to clear.
	other := models.WriteBatch{
		SubjectID: s.subject,
		ScopeID:   id.ScopeID(uuid.New()),
		Appends:   []models.ProposedWrite{{Field: fields.Email, Value: models.Value{Sealed: []byte("x")}, Source: models.SourceAPI}},
	}
	_, err := s.store.AppendBatch(s.ctx, other)
	s.Require().NoError(err)
	rows, err := s.store.ActiveForScope(s.ctx, s.subject, other.ScopeID)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{rows[0].ID}, nil, 99))

	batch, err := Validate(s.snapshot(), s.scope, fields.DomainPerson, proposed(fields.Email))
	s.Require().NoError(err)
	s.Empty(batch.Deactivate, "portable rows from other scopes are shadowed, not deactivated")
}

func assertRejection(t *testing.T, err error, kind Kind, field fields.Identifier) {
	t.Helper()
	var rejection *Error
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, kind, rejection.Kind)
	require.Equal(t, field, rejection.Field)
}
