// Package service orchestrates the vault core: subject/scope lifecycle, the
// locked write path, snapshot reads, and portability commits.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vaultcore/internal/audit"
	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/lock"
	vaultmetrics "vaultcore/internal/vault/metrics"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/seal"
	"vaultcore/internal/vault/snapshot"
	"vaultcore/internal/vault/store/ledger"
	"vaultcore/internal/vault/store/subject"
	id "vaultcore/pkg/domain"
	dErrors "vaultcore/pkg/domain-errors"
	"vaultcore/pkg/platform/sentinel"
	"vaultcore/pkg/platform/tx"
	"vaultcore/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks vaultcore/internal/vault/store/ledger Store

// Service is the vault core's entry point. Writers go through the locked
// validate-append path; readers build snapshots without locking.
type Service struct {
	subjects  subject.Store
	ledger    ledger.Store
	locker    lock.Locker
	snapshots *snapshot.Builder
	sealer    *seal.Sealer
	auditor   *audit.Publisher
	metrics   *vaultmetrics.Metrics
	tx        tx.Runner
	logger    *slog.Logger
	tracer    trace.Tracer
}

type serviceConfig struct {
	auditor *audit.Publisher
	metrics *vaultmetrics.Metrics
	tx      tx.Runner
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*serviceConfig)

// WithAudit sets the audit publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.auditor = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *vaultmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithTxRunner sets the transaction runner; defaults to the no-op runner
// used with in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(c *serviceConfig) { c.tx = runner }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func New(subjects subject.Store, ledgerStore ledger.Store, locker lock.Locker, sealer *seal.Sealer, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = tx.NewNoopRunner()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		subjects:  subjects,
		ledger:    ledgerStore,
		locker:    locker,
		snapshots: snapshot.NewBuilder(ledgerStore),
		sealer:    sealer,
		auditor:   cfg.auditor,
		metrics:   cfg.metrics,
		tx:        cfg.tx,
		logger:    cfg.logger,
		tracer:    otel.Tracer("vaultcore/vault"),
	}
}

// CreateSubject creates a vault owner. Identity is immutable afterwards.
func (s *Service) CreateSubject(ctx context.Context, domain fields.Domain) (*models.Subject, error) {
	if domain != fields.DomainPerson && domain != fields.DomainBusiness {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown subject domain %q", domain)
	}
	subj := &models.Subject{
		ID:        id.SubjectID(uuid.New()),
		Domain:    domain,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.subjects.CreateSubject(ctx, subj); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create subject")
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionSubjectCreated,
		TenantID:  requestcontext.TenantID(ctx),
		SubjectID: subj.ID,
	})
	return subj, nil
}

// CreateScope opens a tenant's relationship with a subject. One scope per
// (subject, tenant) pair.
func (s *Service) CreateScope(ctx context.Context, subjectID id.SubjectID, tenantID id.TenantID, playbookID id.PlaybookID) (*models.Scope, error) {
	if _, err := s.findSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if _, err := s.subjects.FindScopeByTenant(ctx, subjectID, tenantID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "tenant already has a scope on this subject")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to check for existing scope")
	}
	scope := &models.Scope{
		ID:         id.ScopeID(uuid.New()),
		SubjectID:  subjectID,
		TenantID:   tenantID,
		PlaybookID: playbookID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.subjects.CreateScope(ctx, scope); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant already has a scope on this subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create scope")
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionScopeCreated,
		TenantID:  tenantID,
		SubjectID: subjectID,
		ScopeID:   scope.ID,
	})
	return scope, nil
}

// GetScope loads a scope. When the context carries an authenticated tenant,
// the scope must belong to it; a scope is never visible to another tenant.
func (s *Service) GetScope(ctx context.Context, scopeID id.ScopeID) (*models.Scope, error) {
	scope, err := s.subjects.FindScope(ctx, scopeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scope not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load scope")
	}
	if tenantID := requestcontext.TenantID(ctx); !tenantID.IsZero() && tenantID != scope.TenantID {
		return nil, dErrors.New(dErrors.CodeForbidden, "scope belongs to another tenant")
	}
	return scope, nil
}

// ScopeSnapshot builds the tenant-facing view: portable tier overlaid with
// the scope's own speculative rows. No locking; readers rely on transactional
// isolation.
func (s *Service) ScopeSnapshot(ctx context.Context, scopeID id.ScopeID) (*snapshot.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "vault.snapshot")
	defer span.End()

	scope, err := s.GetScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Build(ctx, scope.SubjectID, snapshot.ForScope(scope.ID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to build snapshot")
	}
	if s.metrics != nil {
		s.metrics.SnapshotsBuilt.Inc()
	}
	return snap, nil
}

// GlobalSnapshot builds the cross-tenant view: the portable tier only.
func (s *Service) GlobalSnapshot(ctx context.Context, subjectID id.SubjectID) (*snapshot.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "vault.snapshot")
	defer span.End()

	if _, err := s.findSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Build(ctx, subjectID, snapshot.ForSubjectGlobal())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to build snapshot")
	}
	if s.metrics != nil {
		s.metrics.SnapshotsBuilt.Inc()
	}
	return snap, nil
}

// Unseal opens a stored value for return to an authorized reader. Fields with
// a plaintext companion skip decryption.
func (s *Service) Unseal(f fields.Identifier, v models.Value) (string, error) {
	if v.Plaintext != nil {
		return *v.Plaintext, nil
	}
	plaintext, err := s.sealer.Open(f.String(), v.Sealed)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to unseal value")
	}
	return string(plaintext), nil
}

func (s *Service) findSubject(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	subj, err := s.subjects.FindSubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load subject")
	}
	return subj, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Client = requestcontext.ClientDescriptor(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"subject_id", event.SubjectID,
			"error", err,
		)
	}
}
