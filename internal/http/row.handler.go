package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/koalacapek/airtable-clone/internal/query"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"go.uber.org/zap"
)

// CreateRow appends an empty row, fanning out one empty cell per existing
// column so the (row, column) grid stays fully populated.
func CreateRow(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !utils.UserHasTableAccess(ctx, userID, tableID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		columns, err := query.TableColumns(ctx.DB, tableID)
		if err != nil {
			ctx.Logger.Error("Failed to fetch columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch columns"})
			return
		}

		tx := ctx.DB.Begin()
		if err := tx.Error; err != nil {
			ctx.Logger.Error("Failed to begin transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}

		row := entity.Row{TableID: tableID}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to create row", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create row"})
			return
		}

		cells := make([]entity.Cell, 0, len(columns))
		for _, column := range columns {
			cells = append(cells, entity.Cell{RowID: row.ID, ColumnID: column.ID, Value: ""})
		}
		if len(cells) > 0 {
			if err := tx.Create(&cells).Error; err != nil {
				tx.Rollback()
				ctx.Logger.Error("Failed to create cells", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cells"})
				return
			}
		}

		if err := tx.Commit().Error; err != nil {
			ctx.Logger.Error("Failed to commit transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		payload := query.RowPayload{ID: row.ID, Cells: []query.CellPayload{}}
		for _, cell := range cells {
			payload.Cells = append(payload.Cells, query.CellPayload{ID: cell.ID, ColumnID: cell.ColumnID, Value: cell.Value})
		}

		c.JSON(http.StatusOK, gin.H{"row": payload})
	}
}
