// Package audit captures structured events for vault mutations. It is
// append-only and transport-agnostic so stores and sinks can fan out.
//
// Events carry field identifiers, never field values.
package audit

import (
	"context"
	"time"

	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
)

// Action names what happened.
type Action string

const (
	ActionSubjectCreated Action = "subject_created"
	ActionScopeCreated   Action = "scope_created"
	ActionFieldsWritten  Action = "fields_written"
	ActionScopeCommitted Action = "scope_committed"
)

// Event is emitted from the vault service to record a mutation.
type Event struct {
	Timestamp time.Time    `json:"timestamp"`
	Action    Action       `json:"action"`
	TenantID  id.TenantID  `json:"tenant_id"`
	SubjectID id.SubjectID `json:"subject_id"`
	ScopeID   id.ScopeID   `json:"scope_id,omitzero"`
	Seqno     models.Seqno `json:"seqno,omitempty"`
	Fields    []string     `json:"fields,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Client    string       `json:"client,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]Event, error)
}
