package handler

type createSubjectRequest struct {
	Domain string `json:"domain"`
}

type createScopeRequest struct {
	PlaybookID string `json:"playbook_id"`
}

type fieldWriteRequest struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Source string `json:"source,omitempty"`
}

type writeFieldsRequest struct {
	Fields []fieldWriteRequest `json:"fields"`
}
