package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Table struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	BaseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"base_id"`
	Columns []Column  `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"columns,omitempty"`
	Rows    []Row     `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"rows,omitempty"`
	Views   []View    `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"views,omitempty"`
}
