// Package models holds the vault's persistent domain types.
package models

import (
	"time"

	"github.com/google/uuid"

	"vaultcore/internal/vault/fields"
	id "vaultcore/pkg/domain"
)

// Seqno is the global monotonic logical clock. Every ledger write and every
// portablization is stamped with one; the total order over seqnos is the sole
// basis for cross-tenant "happened before" reasoning.
type Seqno uint64

// Source tags the provenance of a field version. Informational only; it never
// affects visibility or validation.
type Source string

const (
	SourceHosted Source = "hosted"
	SourceAPI    Source = "api"
	SourceVendor Source = "vendor"
	SourceOcr    Source = "ocr"
)

// Subject is the root owner of all field data for one person or one business.
// Identity is immutable; created once.
type Subject struct {
	ID        id.SubjectID  `json:"id"`
	Domain    fields.Domain `json:"domain"`
	CreatedAt time.Time     `json:"created_at"`
}

// Scope binds one subject to one tenant relationship, governed by a playbook.
// All speculative writes are attributed to exactly one scope.
type Scope struct {
	ID         id.ScopeID    `json:"id"`
	SubjectID  id.SubjectID  `json:"subject_id"`
	TenantID   id.TenantID   `json:"tenant_id"`
	PlaybookID id.PlaybookID `json:"playbook_id"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Value is a field payload: the sealed ciphertext plus, for the small set of
// sealing-exempt fields, a plaintext companion.
type Value struct {
	Sealed    []byte
	Plaintext *string
}

// FieldVersion is one row of the append-only ledger.
//
// Invariants:
//   - at most one row per (subject, scope, field) with DeactivatedAt == nil
//   - at most one row per (subject, field) with PortablizedAt != nil and
//     DeactivatedAt == nil
//   - SeqnoCreated is strictly increasing across the whole ledger
//   - PortablizedAt is set at most once and never cleared
//   - rows are never deleted
//
// ScopeID is nil only for rows created directly against the portable tier;
// every row written through the service is scope-born.
type FieldVersion struct {
	ID            uuid.UUID
	SubjectID     id.SubjectID
	ScopeID       *id.ScopeID
	Field         fields.Identifier
	SeqnoCreated  Seqno
	PortablizedAt *Seqno
	DeactivatedAt *Seqno
	Value         Value
	Source        Source
	CreatedAt     time.Time
}

// Active reports whether the row is the live version for its scope.
func (v *FieldVersion) Active() bool { return v.DeactivatedAt == nil }

// Portable reports whether the row is visible on the global tier.
func (v *FieldVersion) Portable() bool { return v.PortablizedAt != nil && v.DeactivatedAt == nil }

// ProposedWrite is one field write inside a validated batch.
type ProposedWrite struct {
	Field  fields.Identifier
	Value  Value
	Source Source
}

// WriteBatch is the output of the transition validator: every row to append
// and every currently-active row the batch deactivates. All mutations share a
// single seqno allocated by the ledger at append time.
type WriteBatch struct {
	SubjectID id.SubjectID
	ScopeID   id.ScopeID
	Appends   []ProposedWrite
	// Deactivate lists active row IDs superseded or cleared by this batch.
	Deactivate []uuid.UUID
}

// Empty reports whether the batch mutates nothing.
func (b *WriteBatch) Empty() bool { return len(b.Appends) == 0 && len(b.Deactivate) == 0 }
