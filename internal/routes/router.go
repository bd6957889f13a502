package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-device-monitor/internal/config"
	"fleet-device-monitor/internal/delivery/http/handler"
	domainDevice "fleet-device-monitor/internal/domain/device"
	"fleet-device-monitor/internal/infrastructure/database/postgres"
	"fleet-device-monitor/internal/logger"
	"fleet-device-monitor/internal/middleware"
	"fleet-device-monitor/internal/usecase/device"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB) (*gin.Engine, *device.Service) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, security headers,
	// CORS, request size limit, general rate limit.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(10 << 20))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	deviceRepository := postgres.NewDeviceRepository(db)
	heartbeatRepository := postgres.NewHeartbeatRepository(db)
	historyRepository := postgres.NewStatusHistoryRepository(db)

	deviceService := device.NewService(
		deviceRepository,
		heartbeatRepository,
		historyRepository,
		domainDevice.DefaultTransitions(),
		cfg.Health,
	)
	deviceHandler := handler.NewDeviceHandler(deviceService)

	v1 := router.Group("/api/v1")
	{
		deviceHandler.RegisterRoutes(v1)
	}

	logger.Info("All routes initialized")
	return router, deviceService
}
