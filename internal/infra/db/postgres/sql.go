package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
)

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape quotes LIKE wildcards in user input.
func likeEscape(s string) string { return likeReplacer.Replace(s) }

// paginate appends LIMIT/OFFSET placeholders. A non-positive limit means no limit.
func paginate(sql string, args []interface{}, offset, limit int) (string, []interface{}) {
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return sql, args
}

func unmarshalJSONB(raw []byte, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}

// whereBuilder collects AND-ed predicates with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// add appends a predicate; each "?" in clause is replaced by the next placeholder.
func (w *whereBuilder) add(clause string, args ...interface{}) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}
