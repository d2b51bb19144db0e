package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/shopspring/decimal"
)

// ErrInvalidFilter is returned for a structurally malformed filter payload.
// Recoverable problems inside a well-formed payload degrade to fewer
// conditions instead.
var ErrInvalidFilter = errors.New("invalid filter payload")

const (
	OpIsEmpty     = "is_empty"
	OpIsNotEmpty  = "is_not_empty"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpEqual       = "equal"
	OpGreater     = "greater"
	OpSmaller     = "smaller"
)

const (
	LogicalAnd = "AND"
	LogicalOr  = "OR"
)

// FilterCondition is one normalized predicate. Column carries the display
// name from the wire format; it is resolved to a column record (and from
// then on keyed by column id) before any SQL is produced.
type FilterCondition struct {
	Column          string `json:"column"`
	Operator        string `json:"operator"`
	Value           string `json:"value,omitempty"`
	LogicalOperator string `json:"logicalOperator,omitempty"`
}

// FilterSpec is the single internal representation both wire formats
// normalize into: an ordered condition list where each condition after the
// first names the operator joining it to the expression built so far.
type FilterSpec struct {
	Conditions []FilterCondition
}

func (s FilterSpec) Empty() bool {
	return len(s.Conditions) == 0
}

// advancedFilters mirrors the current client wire format.
type advancedFilters struct {
	LogicalType string            `json:"logicalType"`
	Conditions  []FilterCondition `json:"conditions"`
}

type legacyEntry struct {
	Op    string `json:"op"`
	Value string `json:"value"`
}

// NormalizeFilters accepts both supported wire formats and returns the
// normalized condition list.
//
// Format (a), legacy: {"Name": {"op": "contains", "value": "o"}, ...} where
// each column maps to one entry or an array of entries, all AND-ed.
// Format (b), current: {"logicalType": "AND", "conditions": [...]}.
//
// A structurally invalid payload returns an error; anything recoverable
// degrades to fewer conditions instead.
func NormalizeFilters(raw json.RawMessage) (FilterSpec, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return FilterSpec{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return FilterSpec{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	if _, ok := probe["logicalType"]; ok {
		var advanced advancedFilters
		if err := json.Unmarshal(raw, &advanced); err != nil {
			return FilterSpec{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		global := LogicalAnd
		if strings.EqualFold(advanced.LogicalType, LogicalOr) {
			global = LogicalOr
		}
		spec := FilterSpec{}
		for _, cond := range advanced.Conditions {
			if cond.Column == "" || cond.Operator == "" {
				continue
			}
			if cond.LogicalOperator == "" {
				cond.LogicalOperator = global
			}
			spec.Conditions = append(spec.Conditions, cond)
		}
		return spec, nil
	}

	// Legacy map format. Map order is not stable in Go, so column names are
	// sorted to keep the emitted SQL deterministic; AND-only composition
	// makes the ordering irrelevant to the result set.
	names := make([]string, 0, len(probe))
	for name := range probe {
		names = append(names, name)
	}
	sort.Strings(names)

	spec := FilterSpec{}
	for _, name := range names {
		entries, err := decodeLegacyEntries(probe[name])
		if err != nil {
			return FilterSpec{}, err
		}
		for _, entry := range entries {
			if entry.Op == "" {
				continue
			}
			spec.Conditions = append(spec.Conditions, FilterCondition{
				Column:          name,
				Operator:        entry.Op,
				Value:           entry.Value,
				LogicalOperator: LogicalAnd,
			})
		}
	}
	return spec, nil
}

func decodeLegacyEntries(raw json.RawMessage) ([]legacyEntry, error) {
	var entries []legacyEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}
	var single legacyEntry
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return []legacyEntry{single}, nil
}

// ComposeFilter resolves each condition's column name against the table's
// columns and compiles the resolved conditions into one WHERE fragment on
// the builder. Conditions naming a column that no longer exists are dropped
// so that stale view configurations degrade instead of erroring.
func ComposeFilter(b *SelectBuilder, spec FilterSpec, columns []entity.Column) string {
	var fragments []string
	var operators []string

	for _, cond := range spec.Conditions {
		column, ok := resolveColumn(columns, cond.Column)
		if !ok {
			continue
		}
		fragment := compilePredicate(b, cond, column)
		if fragment == "" {
			continue
		}
		fragments = append(fragments, fragment)
		op := cond.LogicalOperator
		if op != LogicalOr {
			op = LogicalAnd
		}
		operators = append(operators, op)
	}

	if len(fragments) == 0 {
		return ""
	}

	composed := fragments[0]
	for i := 1; i < len(fragments); i++ {
		composed += " " + operators[i] + " " + fragments[i]
	}
	if len(fragments) > 1 {
		composed = "(" + composed + ")"
	}
	return composed
}

// compilePredicate turns one resolved condition into an existence check
// against the cell store, scoped to the current row alias "r". Comparison
// operators branch on the column type: NUMBER values compare as decimals,
// TEXT values compare as strings (equal stays case-sensitive, contains is
// case-insensitive). An unknown operator compiles to nothing.
func compilePredicate(b *SelectBuilder, cond FilterCondition, column entity.Column) string {
	switch cond.Operator {
	case OpIsEmpty:
		return fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND fc.value IS NOT NULL AND fc.value != '')`,
			b.Bind(column.ID))

	case OpIsNotEmpty:
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND fc.value IS NOT NULL AND fc.value != '')`,
			b.Bind(column.ID))

	case OpContains:
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND LOWER(COALESCE(fc.value, '')) LIKE LOWER(%s))`,
			b.Bind(column.ID), b.Bind(likePattern(cond.Value)))

	case OpNotContains:
		return fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND LOWER(COALESCE(fc.value, '')) LIKE LOWER(%s))`,
			b.Bind(column.ID), b.Bind(likePattern(cond.Value)))

	case OpEqual:
		if column.Type == entity.ColumnTypeNumber {
			return compileNumericCompare(b, column, cond.Value, "=")
		}
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND COALESCE(fc.value, '') = %s)`,
			b.Bind(column.ID), b.Bind(cond.Value))

	case OpGreater:
		if column.Type == entity.ColumnTypeNumber {
			return compileNumericCompare(b, column, cond.Value, ">")
		}
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND COALESCE(fc.value, '') > %s)`,
			b.Bind(column.ID), b.Bind(cond.Value))

	case OpSmaller:
		if column.Type == entity.ColumnTypeNumber {
			return compileNumericCompare(b, column, cond.Value, "<")
		}
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND COALESCE(fc.value, '') < %s)`,
			b.Bind(column.ID), b.Bind(cond.Value))
	}

	return ""
}

// compileNumericCompare guards the DECIMAL cast of the user-supplied side: a
// value that does not parse as a decimal can never match a NUMBER column, so
// the condition is dropped rather than letting Postgres fail the whole query.
// Stored empty cells become NULL through NULLIF and never satisfy the
// comparison.
func compileNumericCompare(b *SelectBuilder, column entity.Column, value, operator string) string {
	if _, err := decimal.NewFromString(value); err != nil {
		return ""
	}
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = %s AND CAST(NULLIF(fc.value, '') AS DECIMAL) %s CAST(%s AS DECIMAL))`,
		b.Bind(column.ID), operator, b.Bind(value))
}

// resolveColumn mimics the client contract: the first column whose display
// name matches wins. All downstream logic keys on the returned record's id.
func resolveColumn(columns []entity.Column, name string) (entity.Column, bool) {
	for _, column := range columns {
		if column.Name == name {
			return column, true
		}
	}
	return entity.Column{}, false
}

// likePattern wraps the value for a substring match and escapes LIKE
// metacharacters so a literal "%" or "_" in a cell search behaves literally.
func likePattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + escaped + "%"
}
