package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"gorm.io/gorm"
)

const (
	// SeedBatchSize bounds each insert so a large seed never grows into one
	// unbounded transaction.
	SeedBatchSize = 1000
	MaxSeedRows   = 100000
)

// SeedRows bulk-creates count synthetic rows with a cell for every column,
// in batches. Returns how many rows were created.
func SeedRows(db *gorm.DB, table entity.Table, columns []entity.Column, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	if count > MaxSeedRows {
		count = MaxSeedRows
	}

	created := 0
	for created < count {
		batch := SeedBatchSize
		if remaining := count - created; remaining < batch {
			batch = remaining
		}

		rows := make([]entity.Row, batch)
		for i := range rows {
			rows[i] = entity.Row{TableID: table.ID}
		}
		if err := db.Create(&rows).Error; err != nil {
			return created, fmt.Errorf("failed to create seed rows: %w", err)
		}

		cells := make([]entity.Cell, 0, batch*len(columns))
		for _, row := range rows {
			for _, column := range columns {
				cells = append(cells, entity.Cell{
					RowID:    row.ID,
					ColumnID: column.ID,
					Value:    FakeCellValue(column),
				})
			}
		}
		if len(cells) > 0 {
			if err := db.CreateInBatches(&cells, SeedBatchSize).Error; err != nil {
				return created, fmt.Errorf("failed to create seed cells: %w", err)
			}
		}

		created += batch
	}

	return created, nil
}

func FakeCellValue(column entity.Column) string {
	if column.Type == entity.ColumnTypeNumber {
		return strconv.Itoa(gofakeit.Number(18, 65))
	}

	switch strings.ToLower(column.Name) {
	case "name":
		return gofakeit.Name()
	case "email":
		return gofakeit.Email()
	case "city":
		return gofakeit.City()
	default:
		return gofakeit.Word()
	}
}
