package query

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestBuildPageQueryDefaultOrder(t *testing.T) {
	tableID := uuid.New()

	sqlText, params, err := BuildPageQuery(tableID, nil, FilterSpec{}, nil, nil, 2)
	require.NoError(t, err)

	want := `SELECT r.id, TO_CHAR(r.created_at, 'YYYY-MM-DD HH24:MI:SS.US') AS sort_value` +
		` FROM rows r WHERE r.table_id = $1 AND r.deleted_at IS NULL` +
		` ORDER BY TO_CHAR(r.created_at, 'YYYY-MM-DD HH24:MI:SS.US') ASC, r.id ASC LIMIT 3`
	assert.Equal(t, want, sqlText)
	assert.Equal(t, []interface{}{tableID}, params)
}

func TestBuildPageQueryNumberSortWithCursor(t *testing.T) {
	tableID := uuid.New()
	age := entity.Column{ID: uuid.New(), Name: "Age", Type: entity.ColumnTypeNumber}
	cursorID := uuid.New()
	value := "30"

	sqlText, params, err := BuildPageQuery(tableID,
		[]sortColumn{{Column: age, Direction: DirectionAsc}},
		FilterSpec{}, nil,
		&Cursor{ID: cursorID, Value: &value}, 100)
	require.NoError(t, err)

	expr := `CAST(NULLIF(c0.value, '') AS DECIMAL)`
	assert.Contains(t, sqlText, `LEFT JOIN cells c0 ON c0.row_id = r.id AND c0.deleted_at IS NULL AND c0.column_id = $1`)
	assert.Contains(t, sqlText, `SELECT r.id, c0.value AS sort_value`)
	assert.Contains(t, sqlText, fmt.Sprintf(`(%s > CAST($3 AS DECIMAL) OR %s IS NULL OR (%s = CAST($3 AS DECIMAL) AND r.id > $4))`, expr, expr, expr))
	assert.Contains(t, sqlText, fmt.Sprintf(`ORDER BY %s ASC NULLS LAST, r.id ASC`, expr))
	assert.Contains(t, sqlText, `LIMIT 101`)
	assert.Equal(t, []interface{}{age.ID, tableID, "30", cursorID}, params)
}

func TestBuildPageQueryTextSortDescendingCursor(t *testing.T) {
	tableID := uuid.New()
	name := entity.Column{ID: uuid.New(), Name: "Name", Type: entity.ColumnTypeText}
	cursorID := uuid.New()
	value := "mallory"

	sqlText, _, err := BuildPageQuery(tableID,
		[]sortColumn{{Column: name, Direction: DirectionDesc}},
		FilterSpec{}, nil,
		&Cursor{ID: cursorID, Value: &value}, 10)
	require.NoError(t, err)

	assert.Contains(t, sqlText, `(LOWER(c0.value) < LOWER($3) OR LOWER(c0.value) IS NULL OR (LOWER(c0.value) = LOWER($3) AND r.id > $4))`)
	assert.Contains(t, sqlText, `ORDER BY LOWER(c0.value) DESC NULLS LAST, r.id ASC`)
}

func TestBuildPageQueryCursorInsideEmptyValueRegion(t *testing.T) {
	tableID := uuid.New()
	name := entity.Column{ID: uuid.New(), Name: "Name", Type: entity.ColumnTypeText}
	cursorID := uuid.New()

	sqlText, params, err := BuildPageQuery(tableID,
		[]sortColumn{{Column: name, Direction: DirectionAsc}},
		FilterSpec{}, nil,
		&Cursor{ID: cursorID}, 10)
	require.NoError(t, err)

	assert.Contains(t, sqlText, `(LOWER(c0.value) IS NULL AND r.id > $3)`)
	assert.Equal(t, []interface{}{name.ID, tableID, cursorID}, params)
}

func TestBuildPageQueryDefaultOrderCursor(t *testing.T) {
	tableID := uuid.New()
	cursorID := uuid.New()
	value := "2024-03-01 12:00:00.000000"

	sqlText, params, err := BuildPageQuery(tableID, nil, FilterSpec{}, nil,
		&Cursor{ID: cursorID, Value: &value}, 10)
	require.NoError(t, err)

	expr := `TO_CHAR(r.created_at, 'YYYY-MM-DD HH24:MI:SS.US')`
	assert.Contains(t, sqlText, fmt.Sprintf(`(%s > $2 OR (%s = $2 AND r.id > $3))`, expr, expr))
	assert.Equal(t, []interface{}{tableID, value, cursorID}, params)
}

func TestBuildPageQueryInvalidCursors(t *testing.T) {
	tableID := uuid.New()
	age := entity.Column{ID: uuid.New(), Name: "Age", Type: entity.ColumnTypeNumber}
	bad := "not a number"

	_, _, err := BuildPageQuery(tableID,
		[]sortColumn{{Column: age, Direction: DirectionAsc}},
		FilterSpec{}, nil,
		&Cursor{ID: uuid.New(), Value: &bad}, 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	// Unsorted pagination always has a sort value; a nil one cannot have
	// been issued by this paginator.
	_, _, err = BuildPageQuery(tableID, nil, FilterSpec{}, nil, &Cursor{ID: uuid.New()}, 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestNextCursorForKey(t *testing.T) {
	age := entity.Column{ID: uuid.New(), Name: "Age", Type: entity.ColumnTypeNumber}
	rowID := uuid.New()

	t.Run("missing sort value encodes as nil", func(t *testing.T) {
		cursor := nextCursorForKey(pageKey{ID: rowID}, []sortColumn{{Column: age, Direction: DirectionAsc}})
		assert.Equal(t, rowID, cursor.ID)
		assert.Nil(t, cursor.Value)
	})

	t.Run("empty NUMBER value encodes as nil", func(t *testing.T) {
		key := pageKey{ID: rowID, SortValue: sql.NullString{String: "", Valid: true}}
		cursor := nextCursorForKey(key, []sortColumn{{Column: age, Direction: DirectionAsc}})
		assert.Nil(t, cursor.Value)
	})

	t.Run("present value is carried", func(t *testing.T) {
		key := pageKey{ID: rowID, SortValue: sql.NullString{String: "42", Valid: true}}
		cursor := nextCursorForKey(key, []sortColumn{{Column: age, Direction: DirectionAsc}})
		require.NotNil(t, cursor.Value)
		assert.Equal(t, "42", *cursor.Value)
	})
}

func TestPageTwoStepFetch(t *testing.T) {
	db, mock := newMockDB(t)

	tableID := uuid.New()
	nameColID := uuid.New()
	hiddenColID := uuid.New()
	row1 := uuid.New()
	row2 := uuid.New()
	row3 := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tables"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "base_id"}).
			AddRow(tableID.String(), "Table 1", uuid.New().String()))

	mock.ExpectQuery(`SELECT \* FROM "columns"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "table_id"}).
			AddRow(nameColID.String(), "Name", "TEXT", tableID.String()).
			AddRow(hiddenColID.String(), "Notes", "TEXT", tableID.String()))

	// Key query returns one row past the page size; the extra row signals a
	// next page and is not emitted.
	mock.ExpectQuery(`SELECT r\.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_value"}).
			AddRow(row1.String(), "2024-03-01 12:00:00.000001").
			AddRow(row2.String(), "2024-03-01 12:00:00.000002").
			AddRow(row3.String(), "2024-03-01 12:00:00.000003"))

	// The payload fetch returns rows in arbitrary order; Page must restore
	// the key order.
	mock.ExpectQuery(`SELECT \* FROM "rows"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "table_id"}).
			AddRow(row2.String(), tableID.String()).
			AddRow(row1.String(), tableID.String()))

	mock.ExpectQuery(`SELECT \* FROM "cells"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "row_id", "column_id", "value"}).
			AddRow(uuid.New().String(), row1.String(), nameColID.String(), "alice").
			AddRow(uuid.New().String(), row1.String(), hiddenColID.String(), "secret").
			AddRow(uuid.New().String(), row2.String(), nameColID.String(), "bob"))

	result, err := Page(db, tableID, PageOptions{
		Limit:         2,
		HiddenColumns: []uuid.UUID{hiddenColID},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, result.Rows, 2)
	assert.Equal(t, row1, result.Rows[0].ID)
	assert.Equal(t, row2, result.Rows[1].ID)

	// Hidden column cells never reach the payload.
	require.Len(t, result.Rows[0].Cells, 1)
	assert.Equal(t, "alice", result.Rows[0].Cells[0].Value)

	require.NotNil(t, result.NextCursor)
	assert.Equal(t, row2, result.NextCursor.ID)
	require.NotNil(t, result.NextCursor.Value)
	assert.Equal(t, "2024-03-01 12:00:00.000002", *result.NextCursor.Value)
}

func TestPageUnknownTable(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tables"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := Page(db, uuid.New(), PageOptions{Limit: 10})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPageEmptyResult(t *testing.T) {
	db, mock := newMockDB(t)
	tableID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tables"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(tableID.String(), "Table 1"))
	mock.ExpectQuery(`SELECT \* FROM "columns"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type"}))
	mock.ExpectQuery(`SELECT r\.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_value"}))

	result, err := Page(db, tableID, PageOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Nil(t, result.NextCursor)
}
