package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ColumnTypeText   = "TEXT"
	ColumnTypeNumber = "NUMBER"
)

// Column names are display labels and are not guaranteed unique within a
// table. Everything downstream of the name→column resolution step keys on ID.
type Column struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	Type    string    `gorm:"type:varchar(50);not null" json:"type"`
	TableID uuid.UUID `gorm:"type:uuid;not null;index" json:"table_id"`
}
