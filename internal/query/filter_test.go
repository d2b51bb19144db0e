package query

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []entity.Column {
	return []entity.Column{
		{ID: uuid.New(), Name: "Name", Type: entity.ColumnTypeText},
		{ID: uuid.New(), Name: "Age", Type: entity.ColumnTypeNumber},
	}
}

func TestNormalizeFiltersEmptyPayloads(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		spec, err := NormalizeFilters(json.RawMessage(raw))
		require.NoError(t, err)
		assert.True(t, spec.Empty(), "payload %q", raw)
	}
}

func TestNormalizeFiltersLegacyFormat(t *testing.T) {
	raw := json.RawMessage(`{
		"Name": {"op": "contains", "value": "o"},
		"Age": [{"op": "greater", "value": "20"}, {"op": "smaller", "value": "40"}]
	}`)

	spec, err := NormalizeFilters(raw)
	require.NoError(t, err)

	// Column names are sorted so the condition order is deterministic.
	require.Len(t, spec.Conditions, 3)
	assert.Equal(t, FilterCondition{Column: "Age", Operator: OpGreater, Value: "20", LogicalOperator: LogicalAnd}, spec.Conditions[0])
	assert.Equal(t, FilterCondition{Column: "Age", Operator: OpSmaller, Value: "40", LogicalOperator: LogicalAnd}, spec.Conditions[1])
	assert.Equal(t, FilterCondition{Column: "Name", Operator: OpContains, Value: "o", LogicalOperator: LogicalAnd}, spec.Conditions[2])
}

func TestNormalizeFiltersAdvancedFormat(t *testing.T) {
	raw := json.RawMessage(`{
		"logicalType": "OR",
		"conditions": [
			{"column": "Name", "operator": "contains", "value": "a"},
			{"column": "Age", "operator": "greater", "value": "30", "logicalOperator": "AND"},
			{"column": "", "operator": "contains", "value": "dropped"},
			{"column": "Name", "operator": "", "value": "dropped"}
		]
	}`)

	spec, err := NormalizeFilters(raw)
	require.NoError(t, err)

	require.Len(t, spec.Conditions, 2)
	assert.Equal(t, LogicalOr, spec.Conditions[0].LogicalOperator)
	assert.Equal(t, LogicalAnd, spec.Conditions[1].LogicalOperator)
}

func TestNormalizeFiltersInvalidPayload(t *testing.T) {
	for _, raw := range []string{`[1, 2]`, `{"Name": "not an entry"}`, `{not json`} {
		_, err := NormalizeFilters(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidFilter, "payload %q", raw)
	}
}

func TestComposeFilterSingleCondition(t *testing.T) {
	columns := testColumns()
	b := NewSelect("rows r")

	fragment := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Name", Operator: OpContains, Value: "o", LogicalOperator: LogicalAnd},
	}}, columns)

	assert.Equal(t, `EXISTS (SELECT 1 FROM cells fc WHERE fc.row_id = r.id AND fc.deleted_at IS NULL AND fc.column_id = $1 AND LOWER(COALESCE(fc.value, '')) LIKE LOWER($2))`, fragment)
	assert.Equal(t, []interface{}{columns[0].ID, "%o%"}, b.Params())
}

func TestComposeFilterMultipleConditions(t *testing.T) {
	columns := testColumns()
	b := NewSelect("rows r")

	fragment := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Name", Operator: OpIsNotEmpty, LogicalOperator: LogicalAnd},
		{Column: "Age", Operator: OpGreater, Value: "21", LogicalOperator: LogicalOr},
	}}, columns)

	assert.True(t, len(fragment) > 2)
	assert.Equal(t, byte('('), fragment[0])
	assert.Equal(t, byte(')'), fragment[len(fragment)-1])
	assert.Contains(t, fragment, " OR ")
	assert.Contains(t, fragment, `CAST(NULLIF(fc.value, '') AS DECIMAL) > CAST($3 AS DECIMAL)`)
}

func TestComposeFilterSkipsUnresolvedColumns(t *testing.T) {
	b := NewSelect("rows r")

	fragment := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Ghost", Operator: OpContains, Value: "x", LogicalOperator: LogicalAnd},
	}}, testColumns())

	assert.Empty(t, fragment)
	assert.Empty(t, b.Params())
}

func TestComposeFilterDropsUnparseableNumericValue(t *testing.T) {
	b := NewSelect("rows r")

	fragment := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Age", Operator: OpEqual, Value: "not a number", LogicalOperator: LogicalAnd},
	}}, testColumns())

	assert.Empty(t, fragment)
}

func TestComposeFilterTextEqualIsCaseSensitive(t *testing.T) {
	columns := testColumns()
	b := NewSelect("rows r")

	fragment := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Name", Operator: OpEqual, Value: "Alice", LogicalOperator: LogicalAnd},
	}}, columns)

	assert.Contains(t, fragment, `COALESCE(fc.value, '') = $2`)
	assert.NotContains(t, fragment, "LOWER")
}

func TestComposeFilterEmptinessOperators(t *testing.T) {
	columns := testColumns()

	b := NewSelect("rows r")
	empty := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Name", Operator: OpIsEmpty, LogicalOperator: LogicalAnd},
	}}, columns)
	assert.Contains(t, empty, "NOT EXISTS")
	assert.Contains(t, empty, `fc.value IS NOT NULL AND fc.value != ''`)

	b = NewSelect("rows r")
	notEmpty := ComposeFilter(b, FilterSpec{Conditions: []FilterCondition{
		{Column: "Name", Operator: OpIsNotEmpty, LogicalOperator: LogicalAnd},
	}}, columns)
	assert.NotContains(t, notEmpty, "NOT EXISTS")
	assert.Contains(t, notEmpty, "EXISTS")
}

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	assert.Equal(t, `%o%`, likePattern("o"))
	assert.Equal(t, `%50\%%`, likePattern("50%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
