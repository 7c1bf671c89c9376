package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
)

type LedgerMemorySuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemory
	subject id.SubjectID
	scope   id.ScopeID
}

func TestLedgerMemorySuite(t *testing.T) {
	suite.Run(t, new(LedgerMemorySuite))
}

func (s *LedgerMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.subject = id.SubjectID(uuid.New())
	s.scope = id.ScopeID(uuid.New())
}

func (s *LedgerMemorySuite) batch(fs ...fields.Identifier) models.WriteBatch {
	b := models.WriteBatch{SubjectID: s.subject, ScopeID: s.scope}
	for _, f := range fs {
		b.Appends = append(b.Appends, models.ProposedWrite{
			Field:  f,
			Value:  models.Value{Sealed: []byte(f)},
			Source: models.SourceAPI,
		})
	}
	return b
}

func (s *LedgerMemorySuite) TestAppendBatch() {
	s.Run("allocates strictly increasing seqnos", func() {
		first, err := s.store.AppendBatch(s.ctx, s.batch(fields.FirstName))
		s.Require().NoError(err)
		second, err := s.store.AppendBatch(s.ctx, s.batch(fields.LastName))
		s.Require().NoError(err)
		s.Greater(second, first)
	})

	s.Run("whole batch shares one seqno", func() {
		seqno, err := s.store.AppendBatch(s.ctx, s.batch(fields.Email, fields.PhoneNumber))
		s.Require().NoError(err)

		rows, err := s.store.ActiveForScope(s.ctx, s.subject, s.scope)
		s.Require().NoError(err)
		for _, row := range rows {
			if row.Field == fields.Email || row.Field == fields.PhoneNumber {
				s.Equal(seqno, row.SeqnoCreated)
			}
		}
	})

	s.Run("rejects empty batch", func() {
		_, err := s.store.AppendBatch(s.ctx, models.WriteBatch{SubjectID: s.subject, ScopeID: s.scope})
		s.Error(err)
	})
}

func (s *LedgerMemorySuite) TestDeactivation() {
	_, err := s.store.AppendBatch(s.ctx, s.batch(fields.Email))
	s.Require().NoError(err)
	rows, err := s.store.ActiveForScope(s.ctx, s.subject, s.scope)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	oldRow := rows[0]

	replacing := s.batch(fields.Email)
	replacing.Deactivate = []uuid.UUID{oldRow.ID}
	seqno, err := s.store.AppendBatch(s.ctx, replacing)
	s.Require().NoError(err)

	rows, err = s.store.ActiveForScope(s.ctx, s.subject, s.scope)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(seqno, rows[0].SeqnoCreated)
	s.NotEqual(oldRow.ID, rows[0].ID)

	s.Run("already deactivated target fails whole batch", func() {
		again := s.batch(fields.Email)
		again.Deactivate = []uuid.UUID{oldRow.ID}
		_, err := s.store.AppendBatch(s.ctx, again)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown target fails whole batch", func() {
		bad := s.batch(fields.Email)
		bad.Deactivate = []uuid.UUID{uuid.New()}
		_, err := s.store.AppendBatch(s.ctx, bad)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *LedgerMemorySuite) TestVisible() {
	_, err := s.store.AppendBatch(s.ctx, s.batch(fields.FirstName))
	s.Require().NoError(err)

	otherScope := id.ScopeID(uuid.New())
	_, err = s.store.AppendBatch(s.ctx, models.WriteBatch{
		SubjectID: s.subject,
		ScopeID:   otherScope,
		Appends:   []models.ProposedWrite{{Field: fields.Email, Value: models.Value{Sealed: []byte("x")}, Source: models.SourceAPI}},
	})
	s.Require().NoError(err)
	otherRows, err := s.store.ActiveForScope(s.ctx, s.subject, otherScope)
	s.Require().NoError(err)
	at, err := s.store.NextSeqno(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{otherRows[0].ID}, nil, at))

	s.Run("scope view unions own rows with portable tier", func() {
		rows, err := s.store.Visible(s.ctx, s.subject, &s.scope)
		s.Require().NoError(err)
		s.Len(rows, 2)
	})

	s.Run("global view shows portable tier only", func() {
		rows, err := s.store.Visible(s.ctx, s.subject, nil)
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(fields.Email, rows[0].Field)
	})

	s.Run("other subjects are invisible", func() {
		rows, err := s.store.Visible(s.ctx, id.SubjectID(uuid.New()), nil)
		s.Require().NoError(err)
		s.Empty(rows)
	})
}

func (s *LedgerMemorySuite) TestPortablize() {
	_, err := s.store.AppendBatch(s.ctx, s.batch(fields.Email))
	s.Require().NoError(err)
	rows, err := s.store.ActiveForScope(s.ctx, s.subject, s.scope)
	s.Require().NoError(err)
	first := rows[0]

	at, err := s.store.NextSeqno(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{first.ID}, nil, at))

	portable, err := s.store.ActivePortable(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Require().Len(portable, 1)
	s.Require().NotNil(portable[0].PortablizedAt)
	s.Equal(at, *portable[0].PortablizedAt)

	s.Run("promotion supersedes prior portable row atomically", func() {
		otherScope := id.ScopeID(uuid.New())
		_, err := s.store.AppendBatch(s.ctx, models.WriteBatch{
			SubjectID: s.subject,
			ScopeID:   otherScope,
			Appends:   []models.ProposedWrite{{Field: fields.Email, Value: models.Value{Sealed: []byte("new")}, Source: models.SourceAPI}},
		})
		s.Require().NoError(err)
		newRows, err := s.store.ActiveForScope(s.ctx, s.subject, otherScope)
		s.Require().NoError(err)

		at, err := s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{newRows[0].ID}, []uuid.UUID{first.ID}, at))

		portable, err := s.store.ActivePortable(s.ctx, s.subject)
		s.Require().NoError(err)
		s.Require().Len(portable, 1)
		s.Equal("new", string(portable[0].Value.Sealed))
	})

	s.Run("deactivated row cannot be promoted", func() {
		err := s.store.Portablize(s.ctx, []uuid.UUID{first.ID}, nil, 99)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

// appendToScope appends one field for a fresh scope and returns the row.
func (s *LedgerMemorySuite) appendToScope(f fields.Identifier) models.FieldVersion {
	scope := id.ScopeID(uuid.New())
	_, err := s.store.AppendBatch(s.ctx, models.WriteBatch{
		SubjectID: s.subject,
		ScopeID:   scope,
		Appends:   []models.ProposedWrite{{Field: f, Value: models.Value{Sealed: []byte(f)}, Source: models.SourceAPI}},
	})
	s.Require().NoError(err)
	rows, err := s.store.ActiveForScope(s.ctx, s.subject, scope)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	return rows[0]
}

func (s *LedgerMemorySuite) portablize(rowID uuid.UUID) models.Seqno {
	at, err := s.store.NextSeqno(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{rowID}, nil, at))
	return at
}

func (s *LedgerMemorySuite) TestPortablizeRacedPlans() {
	s.Run("second active portable version for a field conflicts", func() {
		winner := s.appendToScope(fields.Email)
		loser := s.appendToScope(fields.Email)
		s.portablize(winner.ID)

		// A plan made before the winner landed no longer fits; the caller
		// must re-plan with the winner's row superseded.
		at, err := s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		err = s.store.Portablize(s.ctx, []uuid.UUID{loser.ID}, nil, at)
		s.ErrorIs(err, sentinel.ErrConflict)

		portable, err := s.store.ActivePortable(s.ctx, s.subject)
		s.Require().NoError(err)
		s.Require().Len(portable, 1)
		s.Equal(winner.ID, portable[0].ID)

		// Re-planned with the supersession, the same promotion lands.
		at, err = s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{loser.ID}, []uuid.UUID{winner.ID}, at))
	})

	s.Run("second portable member of a rankable group conflicts", func() {
		ssn9 := s.appendToScope(fields.Ssn9)
		ssn4 := s.appendToScope(fields.Ssn4)
		s.portablize(ssn9.ID)

		at, err := s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		err = s.store.Portablize(s.ctx, []uuid.UUID{ssn4.ID}, nil, at)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("already deactivated supersede target conflicts", func() {
		first := s.appendToScope(fields.PhoneNumber)
		s.portablize(first.ID)
		second := s.appendToScope(fields.PhoneNumber)

		at, err := s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Portablize(s.ctx, []uuid.UUID{second.ID}, []uuid.UUID{first.ID}, at))

		// A racing plan that still names the deactivated row is refused
		// before any mutation.
		third := s.appendToScope(fields.PhoneNumber)
		at, err = s.store.NextSeqno(s.ctx)
		s.Require().NoError(err)
		err = s.store.Portablize(s.ctx, []uuid.UUID{third.ID}, []uuid.UUID{first.ID}, at)
		s.ErrorIs(err, sentinel.ErrConflict)
		s.Nil(s.store.findByID(third.ID).PortablizedAt)
	})
}
