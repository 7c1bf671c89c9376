package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Events are append-only;
// there is no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var scopeID any
	if !event.ScopeID.IsZero() {
		scopeID = uuid.UUID(event.ScopeID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vault_audit_events
			(occurred_at, action, tenant_id, subject_id, scope_id, seqno, fields, request_id, client)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.Timestamp, string(event.Action), uuid.UUID(event.TenantID), uuid.UUID(event.SubjectID),
		scopeID, int64(event.Seqno), pq.Array(event.Fields), event.RequestID, event.Client)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, action, tenant_id, subject_id, scope_id, seqno, fields, request_id, client
		FROM vault_audit_events
		WHERE subject_id = $1
		ORDER BY occurred_at
	`, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event     Event
			action    string
			tenantID  uuid.UUID
			subject   uuid.UUID
			scopeID   uuid.NullUUID
			seqno     int64
			fieldList pq.StringArray
		)
		if err := rows.Scan(&event.Timestamp, &action, &tenantID, &subject, &scopeID,
			&seqno, &fieldList, &event.RequestID, &event.Client); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.TenantID = id.TenantID(tenantID)
		event.SubjectID = id.SubjectID(subject)
		if scopeID.Valid {
			event.ScopeID = id.ScopeID(scopeID.UUID)
		}
		event.Seqno = models.Seqno(seqno)
		event.Fields = fieldList
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
