package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/koalacapek/airtable-clone/internal/query"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func GetViewsByTableID(ctx *appcontext.Context) gin.HandlerFunc {
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

		var views []entity.View
		if err := ctx.DB.Where("table_id = ?", tableID).Order("created_at ASC").Find(&views).Error; err != nil {
			ctx.Logger.Error("Failed to fetch views", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch views"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"views": views})
	}
}

func CreateView(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type createViewRequest struct {
			Name          string          `json:"name"`
			Filters       json.RawMessage `json:"filters"`
			Sort          json.RawMessage `json:"sort"`
			HiddenColumns json.RawMessage `json:"hiddenColumns"`
		}

		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		var request createViewRequest
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

		filters, ok := validateViewFilters(request.Filters)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filters"})
			return
		}
		sort, ok := validateViewSort(request.Sort)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort"})
			return
		}
		hidden, ok := validateViewHiddenColumns(request.HiddenColumns)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hidden columns"})
			return
		}

		name := strings.TrimSpace(request.Name)
		if name == "" {
			name = "Grid view"
		}

		view := entity.View{
			Name:          name,
			TableID:       tableID,
			Filters:       filters,
			Sort:          sort,
			HiddenColumns: hidden,
		}
		if err := ctx.DB.Create(&view).Error; err != nil {
			ctx.Logger.Error("Failed to create view", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create view"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// UpdateView patches only the fields present in the request body so the
// client can persist a filter change without resending sort state.
func UpdateView(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type updateViewRequest struct {
			Name          *string         `json:"name"`
			Filters       json.RawMessage `json:"filters"`
			Sort          json.RawMessage `json:"sort"`
			HiddenColumns json.RawMessage `json:"hiddenColumns"`
		}

		viewID, err := uuid.Parse(c.Param("viewID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid view ID"})
			return
		}

		var request updateViewRequest
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

		if !utils.UserHasViewAccess(ctx, userID, viewID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "View not found"})
			return
		}

		updates := map[string]interface{}{}
		if request.Name != nil {
			name := strings.TrimSpace(*request.Name)
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "View name cannot be empty"})
				return
			}
			updates["name"] = name
		}
		if request.Filters != nil {
			filters, ok := validateViewFilters(request.Filters)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filters"})
				return
			}
			updates["filters"] = filters
		}
		if request.Sort != nil {
			sort, ok := validateViewSort(request.Sort)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort"})
				return
			}
			updates["sort"] = sort
		}
		if request.HiddenColumns != nil {
			hidden, ok := validateViewHiddenColumns(request.HiddenColumns)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hidden columns"})
				return
			}
			updates["hidden_columns"] = hidden
		}

		if len(updates) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "View updated"})
			return
		}

		if err := ctx.DB.Model(&entity.View{}).Where("id = ?", viewID).Updates(updates).Error; err != nil {
			ctx.Logger.Error("Failed to update view", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update view"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "View updated"})
	}
}

// DeleteView refuses to remove the last view of a table so every table
// always keeps at least one saved configuration.
func DeleteView(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewID, err := uuid.Parse(c.Param("viewID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid view ID"})
			return
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !utils.UserHasViewAccess(ctx, userID, viewID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "View not found"})
			return
		}

		var view entity.View
		if err := ctx.DB.First(&view, "id = ?", viewID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "View not found"})
			return
		}

		var count int64
		if err := ctx.DB.Model(&entity.View{}).Where("table_id = ?", view.TableID).Count(&count).Error; err != nil {
			ctx.Logger.Error("Failed to count views", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count views"})
			return
		}
		if count <= 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the last view of a table"})
			return
		}

		if err := ctx.DB.Delete(&view).Error; err != nil {
			ctx.Logger.Error("Failed to delete view", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete view"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "View deleted"})
	}
}

// validateViewFilters accepts anything NormalizeFilters can parse. Column
// names are not resolved here; views may reference columns that get renamed
// or deleted later, and the paginator skips unresolved names at read time.
func validateViewFilters(raw json.RawMessage) (datatypes.JSON, bool) {
	if len(raw) == 0 {
		return datatypes.JSON("{}"), true
	}
	if _, err := query.NormalizeFilters(raw); err != nil {
		return nil, false
	}
	return datatypes.JSON(raw), true
}

func validateViewSort(raw json.RawMessage) (datatypes.JSON, bool) {
	if len(raw) == 0 {
		return datatypes.JSON("{}"), true
	}
	var spec query.SortSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, false
	}
	for _, key := range spec {
		if key.Direction == "" {
			continue
		}
		if !strings.EqualFold(key.Direction, query.DirectionAsc) && !strings.EqualFold(key.Direction, query.DirectionDesc) {
			return nil, false
		}
	}
	return datatypes.JSON(raw), true
}

func validateViewHiddenColumns(raw json.RawMessage) (datatypes.JSON, bool) {
	if len(raw) == 0 {
		return datatypes.JSON("[]"), true
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return datatypes.JSON(raw), true
}
