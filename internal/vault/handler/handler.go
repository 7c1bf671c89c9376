// Package handler is the thin HTTP layer over the vault service. It decodes
// requests, delegates to the service, and translates errors; no vault logic
// lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultcore/internal/transport/http/shared"
	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/service"
	"vaultcore/internal/vault/snapshot"
	"vaultcore/internal/vault/validate"
	id "vaultcore/pkg/domain"
	dErrors "vaultcore/pkg/domain-errors"
	"vaultcore/pkg/platform/middleware/auth"
	"vaultcore/pkg/platform/middleware/metadata"
	request "vaultcore/pkg/platform/middleware/request"
	"vaultcore/pkg/platform/middleware/requesttime"
	"vaultcore/pkg/requestcontext"
)

// Service defines the vault operations the HTTP layer needs.
type Service interface {
	CreateSubject(ctx context.Context, domain fields.Domain) (*models.Subject, error)
	CreateScope(ctx context.Context, subjectID id.SubjectID, tenantID id.TenantID, playbookID id.PlaybookID) (*models.Scope, error)
	WriteFields(ctx context.Context, scopeID id.ScopeID, writes []service.FieldWrite) (models.Seqno, error)
	Commit(ctx context.Context, scopeID id.ScopeID) error
	ScopeSnapshot(ctx context.Context, scopeID id.ScopeID) (*snapshot.Snapshot, error)
	GlobalSnapshot(ctx context.Context, subjectID id.SubjectID) (*snapshot.Snapshot, error)
	Unseal(f fields.Identifier, v models.Value) (string, error)
}

// Handler handles vault endpoints.
type Handler struct {
	logger    *slog.Logger
	vault     Service
	validator auth.TenantValidator
}

// New creates a vault Handler.
func New(vault Service, validator auth.TenantValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		vault:     vault,
		validator: validator,
	}
}

// Register registers the vault routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	vaultRouter := chi.NewRouter()
	vaultRouter.Use(request.Middleware)
	vaultRouter.Use(requesttime.Middleware)
	vaultRouter.Use(metadata.ClientMetadata)
	vaultRouter.Use(auth.RequireTenant(h.validator, h.logger))

	vaultRouter.Post("/subjects", h.handleCreateSubject)
	vaultRouter.Get("/subjects/{subjectID}/snapshot", h.handleGlobalSnapshot)
	vaultRouter.Post("/subjects/{subjectID}/scopes", h.handleCreateScope)
	vaultRouter.Put("/scopes/{scopeID}/fields", h.handleWriteFields)
	vaultRouter.Post("/scopes/{scopeID}/commit", h.handleCommit)
	vaultRouter.Get("/scopes/{scopeID}/snapshot", h.handleScopeSnapshot)

	r.Mount("/", vaultRouter)
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid create subject request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	subj, err := h.vault.CreateSubject(ctx, fields.Domain(req.Domain))
	if err != nil {
		h.writeError(ctx, w, "failed to create subject", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newSubjectResponse(subj))
}

func (h *Handler) handleCreateScope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req createScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid create scope request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	playbookID, err := id.ParsePlaybookID(req.PlaybookID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	scope, err := h.vault.CreateScope(ctx, subjectID, requestcontext.TenantID(ctx), playbookID)
	if err != nil {
		h.writeError(ctx, w, "failed to create scope", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, newScopeResponse(scope))
}

func (h *Handler) handleWriteFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scopeID, err := id.ParseScopeID(chi.URLParam(r, "scopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req writeFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid write fields request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	writes := make([]service.FieldWrite, 0, len(req.Fields))
	for _, f := range req.Fields {
		writes = append(writes, service.FieldWrite{
			Field:  fields.Identifier(f.Field),
			Value:  f.Value,
			Source: models.Source(f.Source),
		})
	}

	seqno, err := h.vault.WriteFields(ctx, scopeID, writes)
	if err != nil {
		h.writeError(ctx, w, "failed to write fields", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, writeFieldsResponse{Seqno: uint64(seqno)})
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scopeID, err := id.ParseScopeID(chi.URLParam(r, "scopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.vault.Commit(ctx, scopeID); err != nil {
		h.writeError(ctx, w, "failed to commit scope", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleScopeSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scopeID, err := id.ParseScopeID(chi.URLParam(r, "scopeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	snap, err := h.vault.ScopeSnapshot(ctx, scopeID)
	if err != nil {
		h.writeError(ctx, w, "failed to build snapshot", err)
		return
	}
	h.writeSnapshot(ctx, w, snap)
}

func (h *Handler) handleGlobalSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	snap, err := h.vault.GlobalSnapshot(ctx, subjectID)
	if err != nil {
		h.writeError(ctx, w, "failed to build snapshot", err)
		return
	}
	h.writeSnapshot(ctx, w, snap)
}

func (h *Handler) writeSnapshot(ctx context.Context, w http.ResponseWriter, snap *snapshot.Snapshot) {
	resp, err := newSnapshotResponse(snap, h.vault.Unseal)
	if err != nil {
		h.writeError(ctx, w, "failed to unseal snapshot", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

// writeError maps service errors onto the transport. Validation rejections
// carry their own kind and field; everything else goes through the shared
// domain error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	var rejection *validate.Error
	if errors.As(err, &rejection) {
		h.warn(ctx, msg, err)
		shared.WriteJSON(w, http.StatusUnprocessableEntity, rejectionResponse{
			Error: string(rejection.Kind),
			Field: rejection.Field.String(),
		})
		return
	}

	switch dErrors.CodeOf(err) {
	case dErrors.CodeStorage, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	default:
		h.warn(ctx, msg, err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", request.GetRequestID(ctx),
		"error", err.Error(),
	)
}
