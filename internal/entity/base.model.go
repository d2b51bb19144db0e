package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Base struct {
	gorm.Model
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name   string    `gorm:"type:varchar(255);not null" json:"name"`
	Color  string    `gorm:"type:varchar(50)" json:"color"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Tables []Table   `gorm:"foreignKey:BaseID;constraint:OnDelete:CASCADE" json:"tables,omitempty"`
}
