package utils

import (
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
)

func UserHasBaseAccess(ctx *appcontext.Context, userID uuid.UUID, baseID uuid.UUID) bool {
	var base entity.Base

	if err := ctx.DB.Where("id = ? AND user_id = ?", baseID, userID).First(&base).Error; err != nil {
		return false
	}

	return true
}

func UserHasTableAccess(ctx *appcontext.Context, userID uuid.UUID, tableID uuid.UUID) bool {
	var table entity.Table

	if err := ctx.DB.First(&table, "id = ?", tableID).Error; err != nil {
		return false
	}

	return UserHasBaseAccess(ctx, userID, table.BaseID)
}

func UserHasViewAccess(ctx *appcontext.Context, userID uuid.UUID, viewID uuid.UUID) bool {
	var view entity.View

	if err := ctx.DB.First(&view, "id = ?", viewID).Error; err != nil {
		return false
	}

	return UserHasTableAccess(ctx, userID, view.TableID)
}

func UserHasCellAccess(ctx *appcontext.Context, userID uuid.UUID, cellID uuid.UUID) bool {
	var cell entity.Cell
	var row entity.Row

	if err := ctx.DB.First(&cell, "id = ?", cellID).Error; err != nil {
		return false
	}

	if err := ctx.DB.First(&row, "id = ?", cell.RowID).Error; err != nil {
		return false
	}

	return UserHasTableAccess(ctx, userID, row.TableID)
}
