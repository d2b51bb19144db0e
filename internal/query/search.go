package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"gorm.io/gorm"
)

// Match is one cell whose value contains the search text. The list a search
// returns is ordered by row creation order, then column creation order, so
// next/previous navigation walks the grid top-to-bottom, left-to-right.
type Match struct {
	CellID   uuid.UUID `gorm:"column:cell_id" json:"cellId"`
	RowID    uuid.UUID `gorm:"column:row_id" json:"rowId"`
	ColumnID uuid.UUID `gorm:"column:column_id" json:"columnId"`
}

type SearchOptions struct {
	Query         string
	Filters       json.RawMessage
	HiddenColumns []uuid.UUID
}

// BuildSearchQuery scans cells for a case-insensitive substring match,
// restricted to rows satisfying the active filter and to visible columns.
// It shares the filter composer with the paginator so search results always
// agree with what the grid currently shows.
func BuildSearchQuery(tableID uuid.UUID, text string, filters FilterSpec, columns []entity.Column, hiddenColumns []uuid.UUID) (string, []interface{}) {
	b := NewSelect("cells c")
	b.Select("c.id AS cell_id", "c.row_id AS row_id", "c.column_id AS column_id")
	b.Join("JOIN rows r ON r.id = c.row_id")
	b.Join("JOIN columns col ON col.id = c.column_id")

	b.Where("r.table_id = " + b.Bind(tableID))
	b.Where("r.deleted_at IS NULL AND c.deleted_at IS NULL AND col.deleted_at IS NULL")
	b.Where(fmt.Sprintf("LOWER(COALESCE(c.value, '')) LIKE LOWER(%s)", b.Bind(likePattern(text))))

	if len(hiddenColumns) > 0 {
		values := make([]interface{}, len(hiddenColumns))
		for i, columnID := range hiddenColumns {
			values[i] = columnID
		}
		b.Where(fmt.Sprintf("c.column_id NOT IN (%s)", b.BindAll(values...)))
	}

	if fragment := ComposeFilter(b, filters, columns); fragment != "" {
		b.Where(fragment)
	}

	b.OrderBy("r.created_at ASC")
	b.OrderBy("r.id ASC")
	b.OrderBy("col.created_at ASC")
	b.OrderBy("col.id ASC")

	return b.SQL(), b.Params()
}

// Search returns the ordered match list for a free-text query. A blank
// query is a no-op, not an error.
func Search(db *gorm.DB, tableID uuid.UUID, opts SearchOptions) ([]Match, error) {
	text := strings.TrimSpace(opts.Query)
	if text == "" {
		return []Match{}, nil
	}

	var table entity.Table
	if err := db.First(&table, "id = ?", tableID).Error; err != nil {
		return nil, err
	}

	columns, err := TableColumns(db, tableID)
	if err != nil {
		return nil, err
	}

	filters, err := NormalizeFilters(opts.Filters)
	if err != nil {
		return nil, err
	}

	sqlText, params := BuildSearchQuery(tableID, text, filters, columns, opts.HiddenColumns)

	matches := []Match{}
	if err := db.Raw(sqlText, params...).Scan(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to run search query: %w", err)
	}
	return matches, nil
}
