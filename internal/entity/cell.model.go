package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cell is one (row, column) fact. A missing cell reads as empty, so every
// query that touches values goes through COALESCE.
type Cell struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	RowID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cell_row_column" json:"row_id"`
	ColumnID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cell_row_column" json:"column_id"`
	Value    string    `gorm:"type:text" json:"value"`
}
