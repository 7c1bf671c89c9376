package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
)

// InMemory is the ledger for unit tests and local development. A single mutex
// makes every operation atomic, which is the same guarantee the postgres
// implementation gets from transactions.
type InMemory struct {
	mu    sync.RWMutex
	rows  []*models.FieldVersion
	seqno models.Seqno
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) NextSeqno(ctx context.Context) (models.Seqno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqno++
	return s.seqno, nil
}

func (s *InMemory) AppendBatch(ctx context.Context, batch models.WriteBatch) (models.Seqno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(batch.Appends) == 0 && len(batch.Deactivate) == 0 {
		return 0, fmt.Errorf("append batch: empty batch")
	}

	// Validate deactivation targets before mutating anything so a bad batch
	// leaves the ledger untouched.
	deactivate := make([]*models.FieldVersion, 0, len(batch.Deactivate))
	for _, rowID := range batch.Deactivate {
		row := s.findByID(rowID)
		if row == nil {
			return 0, fmt.Errorf("append batch: deactivate row %s: %w", rowID, sentinel.ErrNotFound)
		}
		if !row.Active() {
			return 0, fmt.Errorf("append batch: row %s already deactivated: %w", rowID, sentinel.ErrInvalidState)
		}
		deactivate = append(deactivate, row)
	}

	s.seqno++
	at := s.seqno

	for _, row := range deactivate {
		d := at
		row.DeactivatedAt = &d
	}
	scopeID := batch.ScopeID
	for _, w := range batch.Appends {
		s.rows = append(s.rows, &models.FieldVersion{
			ID:           uuid.New(),
			SubjectID:    batch.SubjectID,
			ScopeID:      &scopeID,
			Field:        w.Field,
			SeqnoCreated: at,
			Value:        w.Value,
			Source:       w.Source,
			CreatedAt:    time.Now(),
		})
	}
	return at, nil
}

func (s *InMemory) ActiveForScope(ctx context.Context, subject id.SubjectID, scope id.ScopeID) ([]models.FieldVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FieldVersion
	for _, row := range s.rows {
		if row.SubjectID == subject && row.Active() && row.ScopeID != nil && *row.ScopeID == scope {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *InMemory) ActivePortable(ctx context.Context, subject id.SubjectID) ([]models.FieldVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FieldVersion
	for _, row := range s.rows {
		if row.SubjectID == subject && row.Portable() {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *InMemory) Visible(ctx context.Context, subject id.SubjectID, scope *id.ScopeID) ([]models.FieldVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.FieldVersion
	for _, row := range s.rows {
		if row.SubjectID != subject || !row.Active() {
			continue
		}
		if row.Portable() || (scope != nil && row.ScopeID != nil && *row.ScopeID == *scope) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// Portablize applies the plan atomically. Like the postgres store's unique
// indexes, it refuses a plan that was raced by a concurrent commit: a
// supersede target already deactivated, or a promotion that would leave a
// second active portable row for a (subject, field) pair or a second portable
// member of a rankable group. Callers re-plan on sentinel.ErrConflict.
func (s *InMemory) Portablize(ctx context.Context, promote, supersede []uuid.UUID, at models.Seqno) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	promoteRows := make([]*models.FieldVersion, 0, len(promote))
	for _, rowID := range promote {
		row := s.findByID(rowID)
		if row == nil {
			return fmt.Errorf("portablize row %s: %w", rowID, sentinel.ErrNotFound)
		}
		if !row.Active() {
			return fmt.Errorf("portablize row %s: %w", rowID, sentinel.ErrInvalidState)
		}
		promoteRows = append(promoteRows, row)
	}
	superseded := make(map[uuid.UUID]bool, len(supersede))
	supersedeRows := make([]*models.FieldVersion, 0, len(supersede))
	for _, rowID := range supersede {
		row := s.findByID(rowID)
		if row == nil {
			return fmt.Errorf("portablize supersede row %s: %w", rowID, sentinel.ErrNotFound)
		}
		if !row.Active() {
			return fmt.Errorf("portablize supersede row %s already deactivated: %w", rowID, sentinel.ErrConflict)
		}
		superseded[row.ID] = true
		supersedeRows = append(supersedeRows, row)
	}

	for _, candidate := range promoteRows {
		for _, row := range s.rows {
			if row.ID == candidate.ID || superseded[row.ID] {
				continue
			}
			if row.SubjectID != candidate.SubjectID || !row.Portable() {
				continue
			}
			if row.Field == candidate.Field {
				return fmt.Errorf("portablize %s: second active portable version: %w",
					candidate.Field, sentinel.ErrConflict)
			}
			group := fields.GroupOf(candidate.Field)
			if fields.IsRankable(group) && fields.GroupOf(row.Field) == group {
				return fmt.Errorf("portablize %s: second portable member of group %s: %w",
					candidate.Field, group, sentinel.ErrConflict)
			}
		}
	}

	for _, row := range supersedeRows {
		d := at
		row.DeactivatedAt = &d
	}
	for _, row := range promoteRows {
		p := at
		row.PortablizedAt = &p
	}
	return nil
}

// Seqno returns the current tip of the seqno counter. Test helper.
func (s *InMemory) Seqno() models.Seqno {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seqno
}

func (s *InMemory) findByID(rowID uuid.UUID) *models.FieldVersion {
	for _, row := range s.rows {
		if row.ID == rowID {
			return row
		}
	}
	return nil
}
