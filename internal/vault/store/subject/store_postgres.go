package subject

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
	"vaultcore/pkg/platform/tx"
)

// PostgresStore persists subjects and scopes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) CreateSubject(ctx context.Context, subject *models.Subject) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO vault_subjects (id, domain, created_at)
		VALUES ($1, $2, $3)
	`, uuid.UUID(subject.ID), string(subject.Domain), subject.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create subject: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSubject(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	var (
		subject models.Subject
		rowID   uuid.UUID
		domain  string
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, domain, created_at FROM vault_subjects WHERE id = $1
	`, uuid.UUID(subjectID)).Scan(&rowID, &domain, &subject.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find subject: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	subject.ID = id.SubjectID(rowID)
	subject.Domain = fields.Domain(domain)
	return &subject, nil
}

func (s *PostgresStore) CreateScope(ctx context.Context, scope *models.Scope) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO vault_scopes (id, subject_id, tenant_id, playbook_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(scope.ID), uuid.UUID(scope.SubjectID), uuid.UUID(scope.TenantID),
		uuid.UUID(scope.PlaybookID), scope.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create scope: tenant already scoped to subject: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create scope: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindScope(ctx context.Context, scopeID id.ScopeID) (*models.Scope, error) {
	return s.findScope(ctx, `
		SELECT id, subject_id, tenant_id, playbook_id, created_at
		FROM vault_scopes WHERE id = $1
	`, uuid.UUID(scopeID))
}

func (s *PostgresStore) FindScopeByTenant(ctx context.Context, subjectID id.SubjectID, tenantID id.TenantID) (*models.Scope, error) {
	return s.findScope(ctx, `
		SELECT id, subject_id, tenant_id, playbook_id, created_at
		FROM vault_scopes WHERE subject_id = $1 AND tenant_id = $2
	`, uuid.UUID(subjectID), uuid.UUID(tenantID))
}

func (s *PostgresStore) findScope(ctx context.Context, query string, args ...any) (*models.Scope, error) {
	var (
		scope      models.Scope
		rowID      uuid.UUID
		subjectID  uuid.UUID
		tenantID   uuid.UUID
		playbookID uuid.UUID
	)
	err := s.q(ctx).QueryRowContext(ctx, query, args...).
		Scan(&rowID, &subjectID, &tenantID, &playbookID, &scope.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find scope: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find scope: %w", err)
	}
	scope.ID = id.ScopeID(rowID)
	scope.SubjectID = id.SubjectID(subjectID)
	scope.TenantID = id.TenantID(tenantID)
	scope.PlaybookID = id.PlaybookID(playbookID)
	return &scope, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
