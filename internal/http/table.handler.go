package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/entity"
	"github.com/koalacapek/airtable-clone/internal/metrics"
	"github.com/koalacapek/airtable-clone/internal/query"
	"github.com/koalacapek/airtable-clone/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// bootstrapTable creates a table with the default Name/Age columns, a
// default "Grid view" and the given sample (name, age) rows, all inside the
// caller's transaction.
func bootstrapTable(tx *gorm.DB, baseID uuid.UUID, name string, sampleRows [][2]string) (entity.Table, error) {
	table := entity.Table{Name: name, BaseID: baseID}
	if err := tx.Create(&table).Error; err != nil {
		return entity.Table{}, fmt.Errorf("failed to create table: %w", err)
	}

	columns := []entity.Column{
		{Name: "Name", Type: entity.ColumnTypeText, TableID: table.ID},
		{Name: "Age", Type: entity.ColumnTypeNumber, TableID: table.ID},
	}
	if err := tx.Create(&columns).Error; err != nil {
		return entity.Table{}, fmt.Errorf("failed to create default columns: %w", err)
	}

	view := entity.View{
		Name:          "Grid view",
		TableID:       table.ID,
		Filters:       datatypes.JSON([]byte("{}")),
		Sort:          datatypes.JSON([]byte("{}")),
		HiddenColumns: datatypes.JSON([]byte("[]")),
	}
	if err := tx.Create(&view).Error; err != nil {
		return entity.Table{}, fmt.Errorf("failed to create default view: %w", err)
	}

	for _, sample := range sampleRows {
		row := entity.Row{TableID: table.ID}
		if err := tx.Create(&row).Error; err != nil {
			return entity.Table{}, fmt.Errorf("failed to create sample row: %w", err)
		}

		cells := make([]entity.Cell, 0, len(columns))
		for _, column := range columns {
			value := sample[0]
			if column.Type == entity.ColumnTypeNumber {
				value = sample[1]
			}
			cells = append(cells, entity.Cell{RowID: row.ID, ColumnID: column.ID, Value: value})
		}
		if err := tx.Create(&cells).Error; err != nil {
			return entity.Table{}, fmt.Errorf("failed to create sample cells: %w", err)
		}
	}

	return table, nil
}

func GetTablesByBaseID(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		baseID, err := uuid.Parse(c.Param("baseID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base ID"})
			return
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !utils.UserHasBaseAccess(ctx, userID, baseID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Base not found"})
			return
		}

		var tables []entity.Table
		if err := ctx.DB.Where("base_id = ?", baseID).Order("created_at ASC").Find(&tables).Error; err != nil {
			ctx.Logger.Error("Failed to fetch tables", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tables"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"tables": tables})
	}
}

func CreateTable(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type createTableRequest struct {
			Name string `json:"name"`
		}

		baseID, err := uuid.Parse(c.Param("baseID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base ID"})
			return
		}

		var request createTableRequest
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&request); err != nil {
				ctx.Logger.Error("Failed to bind request", zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
				return
			}
		}

		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !utils.UserHasBaseAccess(ctx, userID, baseID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Base not found"})
			return
		}

		name := strings.TrimSpace(request.Name)
		if name == "" {
			var count int64
			if err := ctx.DB.Model(&entity.Table{}).Where("base_id = ?", baseID).Count(&count).Error; err != nil {
				ctx.Logger.Error("Failed to count tables", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count tables"})
				return
			}
			name = fmt.Sprintf("Table %d", count+1)
		}

		sampleRows := make([][2]string, 5)
		for i := range sampleRows {
			sampleRows[i] = [2]string{gofakeit.Name(), strconv.Itoa(gofakeit.Number(18, 65))}
		}

		tx := ctx.DB.Begin()
		if err := tx.Error; err != nil {
			ctx.Logger.Error("Failed to begin transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}

		table, err := bootstrapTable(tx, baseID, name, sampleRows)
		if err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to create table", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			ctx.Logger.Error("Failed to commit transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"table": table})
	}
}

func GetTablePage(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type getTablePageRequest struct {
			Limit         int             `json:"limit"`
			Cursor        *query.Cursor   `json:"cursor"`
			Filters       json.RawMessage `json:"filters"`
			Sort          query.SortSpec  `json:"sort"`
			HiddenColumns []uuid.UUID     `json:"hiddenColumns"`
		}

		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		var request getTablePageRequest
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

		result, err := query.Page(ctx.DB, tableID, query.PageOptions{
			Limit:         request.Limit,
			Cursor:        request.Cursor,
			Filters:       request.Filters,
			Sort:          request.Sort,
			HiddenColumns: request.HiddenColumns,
		})
		if err != nil {
			metrics.QueryTotal.WithLabelValues("table_page", "error").Inc()
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			case errors.Is(err, query.ErrInvalidCursor):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination cursor"})
			case errors.Is(err, query.ErrInvalidFilter):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filters"})
			default:
				ctx.Logger.Error("Failed to fetch table page", zap.Error(err), zap.String("table_id", tableID.String()))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch table page"})
			}
			return
		}

		metrics.QueryTotal.WithLabelValues("table_page", "ok").Inc()
		c.JSON(http.StatusOK, result)
	}
}

func GetTableColumns(ctx *appcontext.Context) gin.HandlerFunc {
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

		hidden := make(map[uuid.UUID]bool)
		for _, raw := range c.QueryArray("hidden") {
			if columnID, err := uuid.Parse(raw); err == nil {
				hidden[columnID] = true
			}
		}

		columns, err := query.TableColumns(ctx.DB, tableID)
		if err != nil {
			ctx.Logger.Error("Failed to fetch columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch columns"})
			return
		}

		var response []map[string]interface{}
		for _, column := range columns {
			if hidden[column.ID] {
				continue
			}
			response = append(response, map[string]interface{}{
				"id":   column.ID,
				"name": column.Name,
				"type": column.Type,
			})
		}

		c.JSON(http.StatusOK, gin.H{"columns": response})
	}
}

func SeedTableRows(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type seedTableRequest struct {
			Count int `json:"count"`
		}

		tableID, err := uuid.Parse(c.Param("tableID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid table ID"})
			return
		}

		var request seedTableRequest
		if err := c.BindJSON(&request); err != nil {
			ctx.Logger.Error("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		if request.Count <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Count must be positive"})
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

		var table entity.Table
		if err := ctx.DB.First(&table, "id = ?", tableID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		columns, err := query.TableColumns(ctx.DB, tableID)
		if err != nil {
			ctx.Logger.Error("Failed to fetch columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch columns"})
			return
		}

		created, err := utils.SeedRows(ctx.DB, table, columns, request.Count)
		if err != nil {
			metrics.QueryTotal.WithLabelValues("seed", "error").Inc()
			ctx.Logger.Error("Failed to seed rows", zap.Error(err), zap.String("table_id", tableID.String()), zap.Int("created", created))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed rows"})
			return
		}

		metrics.QueryTotal.WithLabelValues("seed", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"created": created})
	}
}
