package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Row struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	TableID uuid.UUID `gorm:"type:uuid;not null;index" json:"table_id"`
	Cells   []Cell    `gorm:"foreignKey:RowID;constraint:OnDelete:CASCADE" json:"cells,omitempty"`
}
