package retriever

import (
	"fmt"
	"regexp"
	"strings"
)

// writeClause matches Cypher clauses that mutate or administer the
// graph. Checked against the upper-cased query on word boundaries.
var writeClause = regexp.MustCompile(`\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD|CALL)\b`)

// guardCypher rejects model-generated queries that are not a single
// read-only MATCH statement. The model is told to only generate reads,
// but its output executes against the live graph, so it is treated as
// untrusted input.
func guardCypher(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("empty query")
	}
	if strings.Contains(q, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "MATCH") {
		return fmt.Errorf("query must start with MATCH")
	}
	if m := writeClause.FindString(upper); m != "" {
		return fmt.Errorf("write clause %s is not allowed", m)
	}
	return nil
}
