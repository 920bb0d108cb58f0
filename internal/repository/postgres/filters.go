package postgres

import (
	"fmt"
	"strings"
)

// buildStatusFilterClause constructs a " WHERE status IN (...)" clause with
// "?" placeholders. An empty status list means no filter.
func buildStatusFilterClause[S ~string](alias string, statuses []S) (string, []interface{}) {
	if len(statuses) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return fmt.Sprintf(" WHERE %sstatus IN (%s)", alias, strings.Join(placeholders, ",")), args
}

// nextSortOrder is a subquery yielding the next insertion position of table.
func nextSortOrder(table string) string {
	return fmt.Sprintf("(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM %s)", table)
}
