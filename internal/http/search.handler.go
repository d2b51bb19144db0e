package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/metrics"
	"github.com/koalacapek/airtable-clone/internal/query"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchTable returns every cell in the table matching the query string,
// scoped to the same filters the grid is currently showing.
func SearchTable(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type searchRequest struct {
			Query         string          `json:"query"`
			Filters       json.RawMessage `json:"filters"`
			HiddenColumns []uuid.UUID     `json:"hiddenColumns"`
		}

		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		var request searchRequest
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

		if !utils.UserHasTableAccess(ctx, userID, tableID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		matches, err := query.Search(ctx.DB, tableID, query.SearchOptions{
			Query:         request.Query,
			Filters:       request.Filters,
			HiddenColumns: request.HiddenColumns,
		})
		if err != nil {
			metrics.QueryTotal.WithLabelValues("search", "error").Inc()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
				return
			}
			if errors.Is(err, query.ErrInvalidFilter) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filters"})
				return
			}
			ctx.Logger.Error("Failed to search table", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search table"})
			return
		}
		metrics.QueryTotal.WithLabelValues("search", "ok").Inc()

		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}
