// Package domain defines typed identifiers shared across the vault core.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-type
// assignment (a ScopeID can never be passed where a SubjectID is expected).
// Construct IDs from external input via the Parse helpers, which enforce the
// invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "vaultcore/pkg/domain-errors"
)

type (
	// TenantID identifies a customer organization.
	TenantID uuid.UUID

	// SubjectID identifies a vault owner (one person or one business).
	SubjectID uuid.UUID

	// ScopeID identifies one tenant's relationship with one subject.
	ScopeID uuid.UUID

	// PlaybookID identifies the verification playbook governing a scope.
	PlaybookID uuid.UUID
)

func (id TenantID) String() string   { return uuid.UUID(id).String() }
func (id SubjectID) String() string  { return uuid.UUID(id).String() }
func (id ScopeID) String() string    { return uuid.UUID(id).String() }
func (id PlaybookID) String() string { return uuid.UUID(id).String() }

func (id TenantID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ScopeID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PlaybookID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// IDs marshal as canonical UUID strings.

func (id TenantID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id SubjectID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ScopeID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id PlaybookID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = TenantID(parsed)
	return nil
}

func (id *SubjectID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = SubjectID(parsed)
	return nil
}

func (id *ScopeID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = ScopeID(parsed)
	return nil
}

func (id *PlaybookID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = PlaybookID(parsed)
	return nil
}

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseTenantID constructs a TenantID from external input.
func ParseTenantID(raw string) (TenantID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(parsed), nil
}

// ParseSubjectID constructs a SubjectID from external input.
func ParseSubjectID(raw string) (SubjectID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(parsed), nil
}

// ParseScopeID constructs a ScopeID from external input.
func ParseScopeID(raw string) (ScopeID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ScopeID{}, err
	}
	return ScopeID(parsed), nil
}

// ParsePlaybookID constructs a PlaybookID from external input.
func ParsePlaybookID(raw string) (PlaybookID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return PlaybookID{}, err
	}
	return PlaybookID(parsed), nil
}
