package subject

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

type SubjectMemorySuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestSubjectMemorySuite(t *testing.T) {
	suite.Run(t, new(SubjectMemorySuite))
}

func (s *SubjectMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *SubjectMemorySuite) newSubject() *models.Subject {
	subj := &models.Subject{ID: id.SubjectID(uuid.New()), Domain: fields.DomainPerson}
	s.Require().NoError(s.store.CreateSubject(s.ctx, subj))
	return subj
}

func (s *SubjectMemorySuite) TestSubjects() {
	s.Run("create and find", func() {
		subj := s.newSubject()
		found, err := s.store.FindSubject(s.ctx, subj.ID)
		s.Require().NoError(err)
		s.Equal(subj.ID, found.ID)
		s.Equal(fields.DomainPerson, found.Domain)
	})

	s.Run("duplicate id conflicts", func() {
		subj := s.newSubject()
		err := s.store.CreateSubject(s.ctx, subj)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing subject not found", func() {
		_, err := s.store.FindSubject(s.ctx, id.SubjectID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SubjectMemorySuite) TestScopes() {
	subj := s.newSubject()
	tenant := id.TenantID(uuid.New())
	scope := &models.Scope{
		ID:         id.ScopeID(uuid.New()),
		SubjectID:  subj.ID,
		TenantID:   tenant,
		PlaybookID: id.PlaybookID(uuid.New()),
	}
	s.Require().NoError(s.store.CreateScope(s.ctx, scope))

	s.Run("find by id and by tenant", func() {
		found, err := s.store.FindScope(s.ctx, scope.ID)
		s.Require().NoError(err)
		s.Equal(scope.TenantID, found.TenantID)

		found, err = s.store.FindScopeByTenant(s.ctx, subj.ID, tenant)
		s.Require().NoError(err)
		s.Equal(scope.ID, found.ID)
	})

	s.Run("one scope per subject and tenant", func() {
		dup := &models.Scope{
			ID:         id.ScopeID(uuid.New()),
			SubjectID:  subj.ID,
			TenantID:   tenant,
			PlaybookID: id.PlaybookID(uuid.New()),
		}
		err := s.store.CreateScope(s.ctx, dup)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("same tenant may scope a different subject", func() {
		other := s.newSubject()
		scope2 := &models.Scope{
			ID:         id.ScopeID(uuid.New()),
			SubjectID:  other.ID,
			TenantID:   tenant,
			PlaybookID: id.PlaybookID(uuid.New()),
		}
		s.NoError(s.store.CreateScope(s.ctx, scope2))
	})

	s.Run("missing scope not found", func() {
		_, err := s.store.FindScope(s.ctx, id.ScopeID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
