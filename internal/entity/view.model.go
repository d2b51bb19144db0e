package entity

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// View persists a filter/sort/visibility preset for a table. Filters and
// Sort keep the client wire format verbatim; the query package normalizes
// them when a page or search is requested.
type View struct {
	gorm.Model
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	TableID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"table_id"`
	Filters       datatypes.JSON `gorm:"type:jsonb" json:"filters"`
	Sort          datatypes.JSON `gorm:"type:jsonb" json:"sort"`
	HiddenColumns datatypes.JSON `gorm:"type:jsonb" json:"hidden_columns"`
}
