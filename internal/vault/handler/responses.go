package handler

import (
	"sort"
	"time"

	"vaultcore/internal/vault/fields"
	"vaultcore/internal/vault/models"
	"vaultcore/internal/vault/snapshot"
)

type subjectResponse struct {
	SubjectID string    `json:"subject_id"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

func newSubjectResponse(subj *models.Subject) subjectResponse {
	return subjectResponse{
		SubjectID: subj.ID.String(),
		Domain:    string(subj.Domain),
		CreatedAt: subj.CreatedAt,
	}
}

type scopeResponse struct {
	ScopeID    string    `json:"scope_id"`
	SubjectID  string    `json:"subject_id"`
	TenantID   string    `json:"tenant_id"`
	PlaybookID string    `json:"playbook_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func newScopeResponse(scope *models.Scope) scopeResponse {
	return scopeResponse{
		ScopeID:    scope.ID.String(),
		SubjectID:  scope.SubjectID.String(),
		TenantID:   scope.TenantID.String(),
		PlaybookID: scope.PlaybookID.String(),
		CreatedAt:  scope.CreatedAt,
	}
}

type writeFieldsResponse struct {
	Seqno uint64 `json:"seqno"`
}

type rejectionResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

type snapshotFieldResponse struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Source   string `json:"source"`
	Seqno    uint64 `json:"seqno"`
	Portable bool   `json:"portable"`
}

type snapshotResponse struct {
	SubjectID string                  `json:"subject_id"`
	Ceiling   uint64                  `json:"ceiling"`
	Fields    []snapshotFieldResponse `json:"fields"`
}

func newSnapshotResponse(snap *snapshot.Snapshot, unseal func(fields.Identifier, models.Value) (string, error)) (snapshotResponse, error) {
	resp := snapshotResponse{
		SubjectID: snap.Subject().String(),
		Ceiling:   uint64(snap.Ceiling()),
		Fields:    make([]snapshotFieldResponse, 0, len(snap.Fields())),
	}
	for _, f := range snap.Fields() {
		row, _ := snap.Version(f)
		value, err := unseal(f, row.Value)
		if err != nil {
			return snapshotResponse{}, err
		}
		resp.Fields = append(resp.Fields, snapshotFieldResponse{
			Field:    f.String(),
			Value:    value,
			Source:   string(row.Source),
			Seqno:    uint64(row.SeqnoCreated),
			Portable: row.Portable(),
		})
	}
	sort.Slice(resp.Fields, func(i, j int) bool { return resp.Fields[i].Field < resp.Fields[j].Field })
	return resp, nil
}
