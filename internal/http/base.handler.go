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

func CreateBase(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type createBaseRequest struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}

		var request createBaseRequest
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

		name := strings.TrimSpace(request.Name)
		if name == "" {
			name = "Untitled Base"
		}

		tx := ctx.DB.Begin()
		if err := tx.Error; err != nil {
			ctx.Logger.Error("Failed to begin transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}

		base := entity.Base{
			Name:   name,
			Color:  request.Color,
			UserID: userID,
		}
		if err := tx.Create(&base).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to create base", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create base"})
			return
		}

		// Every base starts with one table holding a sample row, same as the
		// web client expects after creation.
		table, err := bootstrapTable(tx, base.ID, "Table 1", [][2]string{{"John Doe", "30"}})
		if err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to bootstrap default table", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to bootstrap default table"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			ctx.Logger.Error("Failed to commit transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"base": base, "table": table})
	}
}

func GetBases(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var bases []entity.Base
		if err := ctx.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&bases).Error; err != nil {
			ctx.Logger.Error("Failed to fetch bases", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bases"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"bases": bases})
	}
}

func GetBaseByID(ctx *appcontext.Context) gin.HandlerFunc {
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

		var base entity.Base
		if err := ctx.DB.Where("id = ? AND user_id = ?", baseID, userID).First(&base).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Base not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"base": base})
	}
}

func RenameBase(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type renameBaseRequest struct {
			Name string `json:"name"`
		}

		baseID, err := uuid.Parse(c.Param("baseID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base ID"})
			return
		}

		var request renameBaseRequest
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

		if !utils.UserHasBaseAccess(ctx, userID, baseID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Base not found"})
			return
		}

		name := strings.TrimSpace(request.Name)
		if name == "" {
			name = "Untitled Base"
		}

		if err := ctx.DB.Model(&entity.Base{}).Where("id = ?", baseID).Update("name", name).Error; err != nil {
			ctx.Logger.Error("Failed to rename base", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename base"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Base renamed"})
	}
}

func DeleteBase(ctx *appcontext.Context) gin.HandlerFunc {
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

		tx := ctx.DB.Begin()
		if err := tx.Error; err != nil {
			ctx.Logger.Error("Failed to begin transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin transaction"})
			return
		}

		if err := tx.Where("row_id IN (SELECT id FROM rows WHERE table_id IN (SELECT id FROM tables WHERE base_id = ?))", baseID).Delete(&entity.Cell{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete cells", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete cells"})
			return
		}
		if err := tx.Where("table_id IN (SELECT id FROM tables WHERE base_id = ?)", baseID).Delete(&entity.Row{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete rows", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rows"})
			return
		}
		if err := tx.Where("table_id IN (SELECT id FROM tables WHERE base_id = ?)", baseID).Delete(&entity.Column{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete columns"})
			return
		}
		if err := tx.Where("table_id IN (SELECT id FROM tables WHERE base_id = ?)", baseID).Delete(&entity.View{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete views", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete views"})
			return
		}
		if err := tx.Where("base_id = ?", baseID).Delete(&entity.Table{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete tables", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tables"})
			return
		}
		if err := tx.Where("id = ?", baseID).Delete(&entity.Base{}).Error; err != nil {
			tx.Rollback()
			ctx.Logger.Error("Failed to delete base", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete base"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			ctx.Logger.Error("Failed to commit transaction", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Base deleted"})
	}
}
