package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateCellValue overwrites a cell. Writes race last-write-wins; there is
// no version field on cells.
func UpdateCellValue(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type updateCellRequest struct {
			Value string `json:"value"`
		}

		cellID, err := uuid.Parse(c.Param("cellID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cell ID"})
			return
		}

		var request updateCellRequest
		if err := c.BindJSON(&request); err != nil {
			ctx.Logger.Error("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var cell entity.Cell
		if err := ctx.DB.First(&cell, "id = ?", cellID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cell not found"})
			return
		}

		if !utils.UserHasCellAccess(ctx, userID, cellID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cell not found"})
			return
		}

		var column entity.Column
		if err := ctx.DB.First(&column, "id = ?", cell.ColumnID).Error; err != nil {
			ctx.Logger.Error("Failed to fetch column for cell", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch column for cell"})
			return
		}

		if column.Type == entity.ColumnTypeNumber && request.Value != "" {
			if _, err := decimal.NewFromString(request.Value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Value must be a number"})
				return
			}
		}

		if err := ctx.DB.Model(&cell).Update("value", request.Value).Error; err != nil {
			ctx.Logger.Error("Failed to update cell", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cell"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Cell updated"})
	}
}
