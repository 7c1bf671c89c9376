// Package subject stores vault owners and their tenant scopes.
package subject

import (
	"context"

	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
)

// Store persists subjects and scoped vaults. Pure I/O; uniqueness of the
// (subject, tenant) pair is the one constraint implementations enforce.
type Store interface {
	CreateSubject(ctx context.Context, subject *models.Subject) error
	FindSubject(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error)

	// CreateScope fails with sentinel.ErrConflict when the tenant already
	// has a scope on the subject.
	CreateScope(ctx context.Context, scope *models.Scope) error
	FindScope(ctx context.Context, scopeID id.ScopeID) (*models.Scope, error)
	FindScopeByTenant(ctx context.Context, subjectID id.SubjectID, tenantID id.TenantID) (*models.Scope, error)
}
