package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"go.uber.org/zap"
)

// CreateColumn adds a column and fans out one empty cell per existing row.
// The fan-out is batched because tables can hold 100k+ rows.
func CreateColumn(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type createColumnRequest struct {
			Name string `json:"name"`
			Type string `json:"type"`
		}

		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		var request createColumnRequest
		if err := c.BindJSON(&request); err != nil {
			ctx.Logger.Error("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		if request.Type != entity.ColumnTypeText && request.Type != entity.ColumnTypeNumber {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Column type must be TEXT or NUMBER"})
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

		var rowIDs []uuid.UUID
		if err := ctx.DB.Model(&entity.Row{}).Where("table_id = ?", tableID).Pluck("id", &rowIDs).Error; err != nil {
			ctx.Logger.Error("Failed to fetch rows", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rows"})
			return
		}

		name := strings.TrimSpace(request.Name)
		if name == "" {
			name = "Untitled Column"
		}

		tx := ctx.DB.Begin()
		if err := tx.Error; err != nil {
			ctx.Logger.Error("Failed to begin transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}

		column := entity.Column{Name: name, Type: request.Type, TableID: tableID}
		if err := tx.Create(&column).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to create column", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create column"})
			return
		}

		cells := make([]entity.Cell, 0, len(rowIDs))
		for _, rowID := range rowIDs {
			cells = append(cells, entity.Cell{RowID: rowID, ColumnID: column.ID, Value: ""})
		}
		if len(cells) > 0 {
			if err := tx.CreateInBatches(&cells, utils.SeedBatchSize).Error; err != nil {
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

		c.JSON(http.StatusOK, gin.H{"column": column})
	}
}
