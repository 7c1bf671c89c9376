package subject

import (
	"context"
	"fmt"
	"sync"

	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
)

// InMemory keeps subjects and scopes in maps for unit tests and local
// development.
type InMemory struct {
	mu       sync.RWMutex
	subjects map[id.SubjectID]models.Subject
	scopes   map[id.ScopeID]models.Scope
}

func NewInMemory() *InMemory {
	return &InMemory{
		subjects: make(map[id.SubjectID]models.Subject),
		scopes:   make(map[id.ScopeID]models.Scope),
	}
}

func (s *InMemory) CreateSubject(ctx context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subjects[subject.ID]; exists {
		return fmt.Errorf("create subject: %w", sentinel.ErrConflict)
	}
	s.subjects[subject.ID] = *subject
	return nil
}

func (s *InMemory) FindSubject(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("find subject: %w", sentinel.ErrNotFound)
	}
	return &subject, nil
}

func (s *InMemory) CreateScope(ctx context.Context, scope *models.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scopes[scope.ID]; exists {
		return fmt.Errorf("create scope: %w", sentinel.ErrConflict)
	}
	for _, existing := range s.scopes {
		if existing.SubjectID == scope.SubjectID && existing.TenantID == scope.TenantID {
			return fmt.Errorf("create scope: tenant already scoped to subject: %w", sentinel.ErrConflict)
		}
	}
	s.scopes[scope.ID] = *scope
	return nil
}

func (s *InMemory) FindScope(ctx context.Context, scopeID id.ScopeID) (*models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, ok := s.scopes[scopeID]
	if !ok {
		return nil, fmt.Errorf("find scope: %w", sentinel.ErrNotFound)
	}
	return &scope, nil
}

func (s *InMemory) FindScopeByTenant(ctx context.Context, subjectID id.SubjectID, tenantID id.TenantID) (*models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, scope := range s.scopes {
		if scope.SubjectID == subjectID && scope.TenantID == tenantID {
			out := scope
			return &out, nil
		}
	}
	return nil, fmt.Errorf("find scope by tenant: %w", sentinel.ErrNotFound)
}
