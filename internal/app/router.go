package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/classloop/classloop-backend/internal/http/handlers"
	"github.com/classloop/classloop-backend/internal/http/middleware"
)

type RouterConfig struct {
	AllowOrigins []string

	Auth       *middleware.AuthMiddleware
	Plan       *handlers.PlanHandler
	Assignment *handlers.AssignmentHandler
	Settlement *handlers.SettlementHandler
	Progress   *handlers.ProgressHandler
	Events     *handlers.EventsHandler
}

func wireRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("classloop-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.Auth.RequireClaims())
	{
		api.POST("/plans", cfg.Plan.Publish)
		api.DELETE("/plans/:date", cfg.Plan.Withdraw)

		api.GET("/assignments", cfg.Assignment.Daily)
		api.POST("/assignments", cfg.Assignment.CreateManual)
		api.PATCH("/assignments/status", cfg.Assignment.SetStatus)
		api.POST("/assignments/:id/attempt", cfg.Assignment.IncrementAttempt)

		api.POST("/students/:id/settle", cfg.Settlement.SettleStudent)
		api.POST("/students/:id/pass-outstanding", cfg.Settlement.PassOutstanding)
		api.POST("/classes/settle", cfg.Settlement.SettleClass)

		api.GET("/students/:id/progress", cfg.Progress.Get)
		api.PUT("/students/:id/progress", cfg.Progress.ApplyOverride)

		api.GET("/events/stream", cfg.Events.Stream)
	}

	return router
}
