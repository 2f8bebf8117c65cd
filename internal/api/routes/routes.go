package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/api/handlers"
	"github.com/vigiaproxy/vigia/internal/api/middleware"
	"github.com/vigiaproxy/vigia/internal/config"
	"github.com/vigiaproxy/vigia/internal/metrics"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg *config.Config) error {
	if err := db.AutoMigrate(
		&models.Policy{},
		&models.Rule{},
		&models.Zone{},
		&models.URLCategory{},
		&models.URL{},
		&models.Service{},
		&models.HTTPMethod{},
		&models.Request{},
		&models.User{},
		&models.Notification{},
		&models.NotificationProvider{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	api := router.Group("/api/v1")

	authService := services.NewAuthService(db, cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(authService)
	authMiddleware := middleware.AuthMiddleware(authService)

	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Policies
		policyHandler := handlers.NewPolicyHandler(db)
		protected.GET("/policies", policyHandler.List)
		protected.POST("/policies", policyHandler.Create)
		protected.GET("/policies/:id", policyHandler.Get)
		protected.PUT("/policies/:id", policyHandler.Update)
		protected.DELETE("/policies/:id", policyHandler.Delete)

		// Rules
		ruleHandler := handlers.NewRuleHandler(db)
		protected.GET("/rules", ruleHandler.List)
		protected.POST("/rules", ruleHandler.Create)
		protected.GET("/rules/:id", ruleHandler.Get)
		protected.PUT("/rules/:id", ruleHandler.Update)
		protected.POST("/rules/:id/toggle", ruleHandler.Toggle)
		protected.DELETE("/rules/:id", ruleHandler.Delete)

		// Reference tables
		referenceHandler := handlers.NewReferenceHandler(db)
		protected.GET("/zones", referenceHandler.ListZones)
		protected.POST("/zones", referenceHandler.CreateZone)
		protected.PUT("/zones/:id", referenceHandler.UpdateZone)
		protected.DELETE("/zones/:id", referenceHandler.DeleteZone)

		protected.GET("/categories", referenceHandler.ListCategories)
		protected.POST("/categories", referenceHandler.CreateCategory)
		protected.PUT("/categories/:id", referenceHandler.UpdateCategory)
		protected.DELETE("/categories/:id", referenceHandler.DeleteCategory)

		protected.GET("/urls", referenceHandler.ListURLs)
		protected.POST("/urls", referenceHandler.CreateURL)
		protected.PUT("/urls/:id", referenceHandler.UpdateURL)
		protected.DELETE("/urls/:id", referenceHandler.DeleteURL)

		protected.GET("/services", referenceHandler.ListServices)
		protected.POST("/services", referenceHandler.CreateService)
		protected.PUT("/services/:id", referenceHandler.UpdateService)
		protected.DELETE("/services/:id", referenceHandler.DeleteService)

		protected.GET("/methods", referenceHandler.ListMethods)
		protected.POST("/methods", referenceHandler.CreateMethod)
		protected.DELETE("/methods/:id", referenceHandler.DeleteMethod)

		// Events
		eventHandler := handlers.NewEventHandler(db)
		protected.GET("/events", eventHandler.List)
		protected.GET("/events/summary", eventHandler.Summary)
		protected.DELETE("/events/:id", eventHandler.Redact)

		// Notifications
		notificationHandler := handlers.NewNotificationHandler(db)
		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/providers", notificationHandler.ListProviders)
		protected.POST("/notifications/providers", notificationHandler.CreateProvider)
		protected.DELETE("/notifications/providers/:id", notificationHandler.DeleteProvider)

		// Proxy configuration and ingestion, admin only
		configHandler := handlers.NewConfigHandler(db, cfg)
		admin := protected.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/config/preview", configHandler.Preview)
			admin.POST("/config/apply", configHandler.Apply)
			admin.POST("/ingest/run", configHandler.Ingest)
		}
	}

	return nil
}
