package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koalacapek/airtable-clone/internal/entity"
)

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// SortKey is one entry of the persisted sort wire format:
// { "<columnName>": { "direction": "asc"|"desc", "order": 0 } }.
type SortKey struct {
	Direction string `json:"direction"`
	Order     *int   `json:"order,omitempty"`
}

type SortSpec map[string]SortKey

// sortColumn is a resolved sort entry. Index 0 is the primary sort key, the
// only one a pagination cursor encodes.
type sortColumn struct {
	Column    entity.Column
	Direction string
}

// resolveSortColumns orders the spec's entries by their explicit order
// index (entries without one come last, by name, so the result is stable)
// and resolves each column name to its record. Unresolvable names are
// skipped: sorting is best-effort over possibly stale view configuration.
func resolveSortColumns(spec SortSpec, columns []entity.Column) []sortColumn {
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := spec[names[i]].Order, spec[names[j]].Order
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		default:
			return names[i] < names[j]
		}
	})

	resolved := make([]sortColumn, 0, len(names))
	for _, name := range names {
		column, ok := resolveColumn(columns, name)
		if !ok {
			continue
		}
		direction := DirectionAsc
		if strings.EqualFold(spec[name].Direction, DirectionDesc) {
			direction = DirectionDesc
		}
		resolved = append(resolved, sortColumn{Column: column, Direction: direction})
	}
	return resolved
}

// sortValueExpr is the type-aware comparison expression for a joined cell
// alias: NUMBER cells cast to DECIMAL (empty strings become NULL instead of
// failing the cast), TEXT cells compare case-insensitively.
func sortValueExpr(column entity.Column, alias string) string {
	if column.Type == entity.ColumnTypeNumber {
		return fmt.Sprintf("CAST(NULLIF(%s.value, '') AS DECIMAL)", alias)
	}
	return fmt.Sprintf("LOWER(%s.value)", alias)
}
