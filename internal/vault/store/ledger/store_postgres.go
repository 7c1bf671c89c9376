package ledger

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

// PostgresStore persists field versions in PostgreSQL. This store is pure I/O;
// validation and reconciliation belong to the service layer.
//
// Seqnos come from the vault_seqno sequence. nextval is transactional with the
// writes it stamps, so a batch is either fully visible at its seqno or not at
// all.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// querier joins the transaction carried in ctx when present.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

func (s *PostgresStore) NextSeqno(ctx context.Context) (models.Seqno, error) {
	var seqno models.Seqno
	err := s.q(ctx).QueryRowContext(ctx, `SELECT nextval('vault_seqno')`).Scan(&seqno)
	if err != nil {
		return 0, fmt.Errorf("next seqno: %w", err)
	}
	return seqno, nil
}

const fieldVersionColumns = `id, subject_id, scope_id, field, seqno_created, portablized_at, deactivated_at, sealed, plaintext, source, created_at`

func (s *PostgresStore) AppendBatch(ctx context.Context, batch models.WriteBatch) (models.Seqno, error) {
	if batch.Empty() {
		return 0, fmt.Errorf("append batch: empty batch")
	}

	var seqno models.Seqno
	run := func(txCtx context.Context) error {
		q := s.q(txCtx)

		var err error
		seqno, err = s.NextSeqno(txCtx)
		if err != nil {
			return err
		}

		if len(batch.Deactivate) > 0 {
			res, err := q.ExecContext(txCtx, `
				UPDATE vault_field_versions
				SET deactivated_at = $1
				WHERE id = ANY($2) AND deactivated_at IS NULL
			`, seqno, pq.Array(batch.Deactivate))
			if err != nil {
				return fmt.Errorf("deactivate superseded rows: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("deactivate superseded rows: %w", err)
			}
			if affected != int64(len(batch.Deactivate)) {
				return fmt.Errorf("deactivate superseded rows: expected %d rows, got %d", len(batch.Deactivate), affected)
			}
		}

		for _, w := range batch.Appends {
			_, err := q.ExecContext(txCtx, `
				INSERT INTO vault_field_versions
					(id, subject_id, scope_id, field, seqno_created, sealed, plaintext, source)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, uuid.New(), uuid.UUID(batch.SubjectID), uuid.UUID(batch.ScopeID), string(w.Field), seqno,
				w.Value.Sealed, w.Value.Plaintext, string(w.Source))
			if err != nil {
				return fmt.Errorf("insert field version %s: %w", w.Field, err)
			}
		}
		return nil
	}

	if err := s.inTx(ctx, run); err != nil {
		return 0, err
	}
	return seqno, nil
}

func (s *PostgresStore) ActiveForScope(ctx context.Context, subject id.SubjectID, scope id.ScopeID) ([]models.FieldVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+fieldVersionColumns+`
		FROM vault_field_versions
		WHERE subject_id = $1 AND scope_id = $2 AND deactivated_at IS NULL
		ORDER BY seqno_created
	`, uuid.UUID(subject), uuid.UUID(scope))
	if err != nil {
		return nil, fmt.Errorf("active for scope: %w", err)
	}
	return scanFieldVersions(rows)
}

func (s *PostgresStore) ActivePortable(ctx context.Context, subject id.SubjectID) ([]models.FieldVersion, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+fieldVersionColumns+`
		FROM vault_field_versions
		WHERE subject_id = $1 AND portablized_at IS NOT NULL AND deactivated_at IS NULL
		ORDER BY seqno_created
	`, uuid.UUID(subject))
	if err != nil {
		return nil, fmt.Errorf("active portable: %w", err)
	}
	return scanFieldVersions(rows)
}

func (s *PostgresStore) Visible(ctx context.Context, subject id.SubjectID, scope *id.ScopeID) ([]models.FieldVersion, error) {
	var scopeID any
	if scope != nil {
		scopeID = uuid.UUID(*scope)
	}
	// Single statement so both tiers are read at one snapshot.
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT `+fieldVersionColumns+`
		FROM vault_field_versions
		WHERE subject_id = $1
		  AND deactivated_at IS NULL
		  AND (portablized_at IS NOT NULL OR ($2::uuid IS NOT NULL AND scope_id = $2))
		ORDER BY seqno_created
	`, uuid.UUID(subject), scopeID)
	if err != nil {
		return nil, fmt.Errorf("visible rows: %w", err)
	}
	return scanFieldVersions(rows)
}

// Portablize stamps the plan inside one transaction. Supersession runs first
// so a replacement never trips the one-active-portable indexes transiently.
// A plan raced by a concurrent commit surfaces as sentinel.ErrConflict, either
// because a supersede target was already deactivated or because promotion
// would create a second active portable row; callers re-plan and retry.
func (s *PostgresStore) Portablize(ctx context.Context, promote, supersede []uuid.UUID, at models.Seqno) error {
	run := func(txCtx context.Context) error {
		q := s.q(txCtx)

		if len(supersede) > 0 {
			res, err := q.ExecContext(txCtx, `
				UPDATE vault_field_versions
				SET deactivated_at = $1
				WHERE id = ANY($2) AND deactivated_at IS NULL
			`, at, pq.Array(supersede))
			if err != nil {
				return fmt.Errorf("deactivate superseded portable rows: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("deactivate superseded portable rows: %w", err)
			}
			if affected != int64(len(supersede)) {
				return fmt.Errorf("deactivate superseded portable rows: expected %d rows, got %d: %w",
					len(supersede), affected, sentinel.ErrConflict)
			}
		}
		if len(promote) > 0 {
			res, err := q.ExecContext(txCtx, `
				UPDATE vault_field_versions
				SET portablized_at = $1
				WHERE id = ANY($2) AND deactivated_at IS NULL AND portablized_at IS NULL
			`, at, pq.Array(promote))
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("portablize rows: second active portable version: %w", sentinel.ErrConflict)
				}
				return fmt.Errorf("portablize rows: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("portablize rows: %w", err)
			}
			if affected != int64(len(promote)) {
				return fmt.Errorf("portablize rows: expected %d rows, got %d", len(promote), affected)
			}
		}
		return nil
	}
	return s.inTx(ctx, run)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// inTx runs fn in the context transaction when one exists, otherwise opens an
// own transaction for the batch.
func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanFieldVersions(rows *sql.Rows) ([]models.FieldVersion, error) {
	defer rows.Close()

	var out []models.FieldVersion
	for rows.Next() {
		var (
			v             models.FieldVersion
			rowID         uuid.UUID
			subjectID     uuid.UUID
			scopeID       uuid.NullUUID
			field         string
			portablizedAt sql.NullInt64
			deactivatedAt sql.NullInt64
			source        string
		)
		if err := rows.Scan(&rowID, &subjectID, &scopeID, &field, &v.SeqnoCreated,
			&portablizedAt, &deactivatedAt, &v.Value.Sealed, &v.Value.Plaintext, &source, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field version: %w", err)
		}
		v.ID = rowID
		v.SubjectID = id.SubjectID(subjectID)
		if scopeID.Valid {
			sid := id.ScopeID(scopeID.UUID)
			v.ScopeID = &sid
		}
		v.Field = fields.Identifier(field)
		if portablizedAt.Valid {
			p := models.Seqno(portablizedAt.Int64)
			v.PortablizedAt = &p
		}
		if deactivatedAt.Valid {
			d := models.Seqno(deactivatedAt.Int64)
			v.DeactivatedAt = &d
		}
		v.Source = models.Source(source)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field versions: %w", err)
	}
	return out, nil
}
