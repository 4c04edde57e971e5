package router

import (
	"myStyleFit/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecommendRoutes(api *echo.Group, handler *rest.RecommendHandler) {
	reco := api.Group("/recommend")
	reco.POST("", handler.RecommendByStyle)
	reco.POST("/from-fitting", handler.RecommendFromFitting)
	reco.POST("/by-positions", handler.RecommendByPositions)
	reco.GET("/status", handler.Status)
	reco.GET("/catalog", handler.CatalogStats)
	reco.GET("/random", handler.Random)

	api.GET("/search/semantic", handler.Search)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin")
	admin.POST("/catalog/refresh", handler.RefreshCatalog)
}

func SetHealthRoutes(api *echo.Group, handler *rest.HealthHandler) {
	api.GET("/health", handler.Health)
}
