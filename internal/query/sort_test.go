package query

import (
	"testing"

	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestResolveSortColumns(t *testing.T) {
	columns := testColumns()

	t.Run("explicit order indexes win", func(t *testing.T) {
		resolved := resolveSortColumns(SortSpec{
			"Name": {Direction: "asc", Order: intPtr(1)},
			"Age":  {Direction: "desc", Order: intPtr(0)},
		}, columns)

		require.Len(t, resolved, 2)
		assert.Equal(t, "Age", resolved[0].Column.Name)
		assert.Equal(t, DirectionDesc, resolved[0].Direction)
		assert.Equal(t, "Name", resolved[1].Column.Name)
		assert.Equal(t, DirectionAsc, resolved[1].Direction)
	})

	t.Run("entries without order index come last by name", func(t *testing.T) {
		resolved := resolveSortColumns(SortSpec{
			"Name": {Direction: "asc"},
			"Age":  {Direction: "asc", Order: intPtr(5)},
		}, columns)

		require.Len(t, resolved, 2)
		assert.Equal(t, "Age", resolved[0].Column.Name)
		assert.Equal(t, "Name", resolved[1].Column.Name)
	})

	t.Run("unknown column names are skipped", func(t *testing.T) {
		resolved := resolveSortColumns(SortSpec{
			"Ghost": {Direction: "asc"},
			"Name":  {Direction: "asc"},
		}, columns)

		require.Len(t, resolved, 1)
		assert.Equal(t, "Name", resolved[0].Column.Name)
	})

	t.Run("direction defaults to asc and parses case-insensitively", func(t *testing.T) {
		resolved := resolveSortColumns(SortSpec{
			"Name": {Direction: "DESC"},
			"Age":  {Direction: ""},
		}, columns)

		require.Len(t, resolved, 2)
		assert.Equal(t, DirectionAsc, resolved[0].Direction)
		assert.Equal(t, DirectionDesc, resolved[1].Direction)
	})
}

func TestSortValueExpr(t *testing.T) {
	number := entity.Column{Type: entity.ColumnTypeNumber}
	text := entity.Column{Type: entity.ColumnTypeText}

	assert.Equal(t, `CAST(NULLIF(c0.value, '') AS DECIMAL)`, sortValueExpr(number, "c0"))
	assert.Equal(t, `LOWER(c1.value)`, sortValueExpr(text, "c1"))
}
