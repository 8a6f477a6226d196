package models

import "fmt"

// Query fields and operators accepted by [QuerySpec.Validate]. The query
// engine evaluates specs server-side; nothing here is executable, which is
// the point: callers submit structure, not code.
var (
	queryFields = map[string]bool{
		"title": true, "artist": true, "album": true, "duration": true, "playlist": true,
	}
	queryOps = map[string]bool{
		"eq": true, "ne": true, "contains": true, "lt": true, "gt": true,
	}
)

// QueryClause is a single field/operator/value predicate.
type QueryClause struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// QuerySpec is a structured track query: the conjunction of its clauses.
type QuerySpec struct {
	Clauses []QueryClause `json:"clauses"`
	Limit   int           `json:"limit,omitempty"`
}

// Validate rejects specs referencing unknown fields or operators.
func (q QuerySpec) Validate() error {
	if len(q.Clauses) == 0 {
		return fmt.Errorf("query has no clauses")
	}
	for _, c := range q.Clauses {
		if !queryFields[c.Field] {
			return fmt.Errorf("unknown query field %q", c.Field)
		}
		if !queryOps[c.Op] {
			return fmt.Errorf("unknown query operator %q", c.Op)
		}
	}
	return nil
}
