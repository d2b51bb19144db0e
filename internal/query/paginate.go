package query

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// ErrInvalidCursor is returned when a supplied cursor cannot be applied to
// the current sort configuration, e.g. a non-numeric value against a NUMBER
// sort column. Cursors are only valid for the filter/sort they were issued
// under; callers must discard them when either changes.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// defaultSortExpr orders rows by creation when no sort is configured. The
// fixed-width text rendering compares the same way the timestamp does, so
// it doubles as the cursor value for unsorted pagination.
const defaultSortExpr = `TO_CHAR(r.created_at, 'YYYY-MM-DD HH24:MI:SS.US')`

// Cursor resumes pagination exactly after the last emitted row. Value holds
// the row's primary sort value; nil means the row had no value for the
// primary sort column (empty cells sort last).
type Cursor struct {
	ID    uuid.UUID `json:"id"`
	Value *string   `json:"value"`
}

type PageOptions struct {
	Limit         int
	Cursor        *Cursor
	Filters       json.RawMessage
	Sort          SortSpec
	HiddenColumns []uuid.UUID
}

type CellPayload struct {
	ID       uuid.UUID `json:"id"`
	ColumnID uuid.UUID `json:"columnId"`
	Value    string    `json:"value"`
}

type RowPayload struct {
	ID    uuid.UUID     `json:"id"`
	Cells []CellPayload `json:"cells"`
}

type PageResult struct {
	Rows       []RowPayload `json:"rows"`
	NextCursor *Cursor      `json:"nextCursor"`
}

// pageKey is what the first query yields per row: the id and the raw value
// of the primary sort column.
type pageKey struct {
	ID        uuid.UUID      `gorm:"column:id"`
	SortValue sql.NullString `gorm:"column:sort_value"`
}

// BuildPageQuery assembles the key query: one row per matching table row,
// joined to the cell store once per sort column, filtered, resumed after
// the cursor, ordered by every sort expression and finally by row id, and
// limited to one row past the page size so the caller can detect a next
// page without counting.
func BuildPageQuery(tableID uuid.UUID, sortCols []sortColumn, filters FilterSpec, columns []entity.Column, cursor *Cursor, limit int) (string, []interface{}, error) {
	b := NewSelect("rows r")

	exprs := make([]string, len(sortCols))
	for i, sc := range sortCols {
		alias := fmt.Sprintf("c%d", i)
		b.Join(fmt.Sprintf("LEFT JOIN cells %s ON %s.row_id = r.id AND %s.deleted_at IS NULL AND %s.column_id = %s",
			alias, alias, alias, alias, b.Bind(sc.Column.ID)))
		exprs[i] = sortValueExpr(sc.Column, alias)
	}

	b.Select("r.id")
	if len(sortCols) > 0 {
		b.Select("c0.value AS sort_value")
	} else {
		b.Select(defaultSortExpr + " AS sort_value")
	}

	b.Where("r.table_id = " + b.Bind(tableID))
	b.Where("r.deleted_at IS NULL")

	if fragment := ComposeFilter(b, filters, columns); fragment != "" {
		b.Where(fragment)
	}

	if cursor != nil {
		fragment, err := cursorPredicate(b, sortCols, exprs, cursor)
		if err != nil {
			return "", nil, err
		}
		b.Where(fragment)
	}

	for i, sc := range sortCols {
		direction := "ASC"
		if sc.Direction == DirectionDesc {
			direction = "DESC"
		}
		// Empty cells sort last in either direction.
		b.OrderBy(fmt.Sprintf("%s %s NULLS LAST", exprs[i], direction))
	}
	if len(sortCols) == 0 {
		b.OrderBy(defaultSortExpr + " ASC")
	}
	// Mandatory tie-break: without it rows with equal sort values could be
	// emitted in either order across calls and pages would skip or repeat.
	b.OrderBy("r.id ASC")

	b.Limit(limit + 1)

	return b.SQL(), b.Params(), nil
}

// cursorPredicate compiles the compound (sort value, row id) inequality that
// resumes after the cursor row. Only the primary sort column participates;
// row id is the always-present final key, so resumption stays deterministic
// even when secondary sort columns tie across the page boundary.
func cursorPredicate(b *SelectBuilder, sortCols []sortColumn, exprs []string, cursor *Cursor) (string, error) {
	if len(sortCols) == 0 {
		if cursor.Value == nil {
			return "", ErrInvalidCursor
		}
		valueRef := b.Bind(*cursor.Value)
		return fmt.Sprintf("(%s > %s OR (%s = %s AND r.id > %s))",
			defaultSortExpr, valueRef, defaultSortExpr, valueRef, b.Bind(cursor.ID)), nil
	}

	primary := sortCols[0]
	expr := exprs[0]
	comparator := ">"
	if primary.Direction == DirectionDesc {
		comparator = "<"
	}

	if cursor.Value == nil || (primary.Column.Type == entity.ColumnTypeNumber && *cursor.Value == "") {
		// The cursor row sat in the trailing empty-value region; only rows
		// without a value remain, resumed by id.
		return fmt.Sprintf("(%s IS NULL AND r.id > %s)", expr, b.Bind(cursor.ID)), nil
	}

	var valueRef string
	if primary.Column.Type == entity.ColumnTypeNumber {
		if _, err := decimal.NewFromString(*cursor.Value); err != nil {
			return "", ErrInvalidCursor
		}
		valueRef = fmt.Sprintf("CAST(%s AS DECIMAL)", b.Bind(*cursor.Value))
	} else {
		valueRef = fmt.Sprintf("LOWER(%s)", b.Bind(*cursor.Value))
	}

	return fmt.Sprintf("(%s %s %s OR %s IS NULL OR (%s = %s AND r.id > %s))",
		expr, comparator, valueRef, expr, expr, valueRef, b.Bind(cursor.ID)), nil
}

// Page runs the two-step paginated fetch: the key query selects the page's
// row ids and primary sort values, then the full cell payloads are loaded
// for those ids and re-ordered to the key order, since the second fetch has
// no ordering guarantee of its own.
func Page(db *gorm.DB, tableID uuid.UUID, opts PageOptions) (*PageResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
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

	sortCols := resolveSortColumns(opts.Sort, columns)

	sqlText, params, err := BuildPageQuery(tableID, sortCols, filters, columns, opts.Cursor, opts.Limit)
	if err != nil {
		return nil, err
	}

	var keys []pageKey
	if err := db.Raw(sqlText, params...).Scan(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to run page key query: %w", err)
	}

	hasMore := len(keys) > opts.Limit
	if hasMore {
		keys = keys[:opts.Limit]
	}

	result := &PageResult{Rows: []RowPayload{}}
	if len(keys) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, len(keys))
	for i, key := range keys {
		ids[i] = key.ID
	}

	var rows []entity.Row
	if err := db.Preload("Cells").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch row payloads: %w", err)
	}

	hidden := make(map[uuid.UUID]bool, len(opts.HiddenColumns))
	for _, columnID := range opts.HiddenColumns {
		hidden[columnID] = true
	}

	rowsByID := make(map[uuid.UUID]entity.Row, len(rows))
	for _, row := range rows {
		rowsByID[row.ID] = row
	}

	for _, id := range ids {
		row, ok := rowsByID[id]
		if !ok {
			// Deleted between the two fetches; the page just gets shorter.
			continue
		}
		payload := RowPayload{ID: row.ID, Cells: []CellPayload{}}
		for _, cell := range row.Cells {
			if hidden[cell.ColumnID] {
				continue
			}
			payload.Cells = append(payload.Cells, CellPayload{
				ID:       cell.ID,
				ColumnID: cell.ColumnID,
				Value:    cell.Value,
			})
		}
		result.Rows = append(result.Rows, payload)
	}

	if hasMore {
		last := keys[len(keys)-1]
		result.NextCursor = nextCursorForKey(last, sortCols)
	}

	return result, nil
}

// nextCursorForKey encodes the last emitted row as the resume point. A
// NUMBER column's empty string is indistinguishable from a missing cell at
// comparison time, so both encode as a nil value.
func nextCursorForKey(key pageKey, sortCols []sortColumn) *Cursor {
	cursor := &Cursor{ID: key.ID}
	if !key.SortValue.Valid {
		return cursor
	}
	value := key.SortValue.String
	if len(sortCols) > 0 && sortCols[0].Column.Type == entity.ColumnTypeNumber && value == "" {
		return cursor
	}
	cursor.Value = &value
	return cursor
}

// TableColumns lists a table's columns in creation order, which is the
// display order the grid uses.
func TableColumns(db *gorm.DB, tableID uuid.UUID) ([]entity.Column, error) {
	var columns []entity.Column
	if err := db.Where("table_id = ?", tableID).Order("created_at ASC, id ASC").Find(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}
	return columns, nil
}
