package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type routeDeps struct {
	metrics    *service.MetricsService
	tokens     *internalmiddleware.TokenValidator
	health     *handler.MetricsHandler
	timetables *handler.TimetableHandler
	configs    *handler.TimetableConfigHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics, "/health", "/ready", "/metrics"))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	editors := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	readers := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.tokens))

	timetables := api.Group("/timetables")
	timetables.POST("", editors, deps.timetables.Create)
	timetables.GET("/:id", readers, deps.timetables.Get)
	timetables.POST("/:id/generate", editors, deps.timetables.Generate)
	timetables.GET("/:id/conflicts", readers, deps.timetables.Conflicts)
	timetables.POST("/:id/entries", editors, deps.timetables.CreateEntry)
	timetables.POST("/:id/entries/swap", editors, deps.timetables.SwapEntries)
	timetables.PUT("/:id/entries/:entryId", editors, deps.timetables.UpdateEntry)
	timetables.DELETE("/:id/entries/:entryId", editors, deps.timetables.DeleteEntry)
	timetables.GET("/:id/versions", readers, deps.timetables.ListVersions)
	timetables.POST("/:id/versions", editors, deps.timetables.CreateVersion)
	timetables.GET("/:id/versions/:versionId/changes", readers, deps.timetables.ListChanges)
	timetables.POST("/:id/versions/:versionId/changes", editors, deps.timetables.RecordChange)
	timetables.GET("/:id/export", readers, deps.timetables.Export)

	configs := api.Group("/timetable-configs")
	configs.POST("", editors, deps.configs.Create)
	configs.GET("/active", readers, deps.configs.Active)
	configs.POST("/:id/activate", editors, deps.configs.Activate)

	return r
}
