package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koalacapek/airtable-clone/internal/appcontext"
	"github.com/koalacapek/airtable-clone/internal/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.MetricsMiddleware())

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	v1 := h.engine.Group("/api/v1")
	h.setupAuthRoutes(v1)
	h.setupBaseRoutes(v1)
	h.setupTableRoutes(v1)
	h.setupCellRoutes(v1)
	h.setupViewRoutes(v1)

	h.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *APIService) setupAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")

	auth.GET("/login", Login(h.context))
	auth.GET("/callback", Callback(h.context))
	auth.POST("/logout", Logout(h.context))
	auth.GET("/me", middleware.JWTAuthMiddleware(), GetUserInfo(h.context))
}

func (h *APIService) setupBaseRoutes(group *gin.RouterGroup) {
	bases := group.Group("/bases")
	bases.Use(middleware.JWTAuthMiddleware())

	bases.GET("/", GetBases(h.context))
	bases.POST("/", CreateBase(h.context))
	bases.GET("/:baseID", GetBaseByID(h.context))
	bases.PATCH("/:baseID", RenameBase(h.context))
	bases.DELETE("/:baseID", DeleteBase(h.context))
	bases.GET("/:baseID/tables", GetTablesByBaseID(h.context))
	bases.POST("/:baseID/tables", CreateTable(h.context))
}

func (h *APIService) setupTableRoutes(group *gin.RouterGroup) {
	tables := group.Group("/tables")
	tables.Use(middleware.JWTAuthMiddleware())

	tables.POST("/:tableID/data", GetTablePage(h.context))
	tables.GET("/:tableID/columns", GetTableColumns(h.context))
	tables.POST("/:tableID/columns", CreateColumn(h.context))
	tables.POST("/:tableID/rows", CreateRow(h.context))
	tables.POST("/:tableID/seed", SeedTableRows(h.context))
	tables.POST("/:tableID/search", SearchTable(h.context))
	tables.GET("/:tableID/views", GetViewsByTableID(h.context))
	tables.POST("/:tableID/views", CreateView(h.context))
}

func (h *APIService) setupCellRoutes(group *gin.RouterGroup) {
	cells := group.Group("/cells")
	cells.Use(middleware.JWTAuthMiddleware())

	cells.PATCH("/:cellID", UpdateCellValue(h.context))
}

func (h *APIService) setupViewRoutes(group *gin.RouterGroup) {
	views := group.Group("/views")
	views.Use(middleware.JWTAuthMiddleware())

	views.PATCH("/:viewID", UpdateView(h.context))
	views.DELETE("/:viewID", DeleteView(h.context))
}
