package main

import (
	"log"
	"net/http"
	"time"

	config "superstore-dashboard-api/configs"
	"superstore-dashboard-api/pkg/dataset"
	"superstore-dashboard-api/pkg/gemini"
	"superstore-dashboard-api/pkg/handlers"
	"superstore-dashboard-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	r := gin.Default()

	// The dataset is loaded once per process lifetime. A load failure is
	// fatal to the dashboard features but the server still starts, so the
	// frontend can render the error state.
	records, loadErr := dataset.Load(cfg.DatasetPath)
	if loadErr != nil {
		log.Printf("❌ Failed to load dataset: %v", loadErr)
	}

	monitoringService := services.NewMonitoringService()
	sessionService := services.NewSessionService()
	dashboardService := services.NewDashboardService(records, loadErr)

	// Missing API key is a startup-time configuration error: AI features
	// are disabled, the rest of the dashboard remains usable.
	var aiService *services.AIService
	if cfg.AIConfigured() {
		client := gemini.NewClient(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel,
			time.Duration(cfg.AITimeoutSecs)*time.Second)
		aiService = services.NewAIService(client, cfg.AIMaxSampleRows)
	} else {
		log.Printf("Warning: GEMINI_API_KEY not set, AI features are disabled")
	}

	dashboardHandler := handlers.NewDashboardHandler(dashboardService, sessionService)
	aiHandler := handlers.NewAIHandler(aiService, dashboardService, sessionService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" {
				c.Next()
				return
			}
			providedKey := c.GetHeader("X-API-KEY")
			if providedKey != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/filters", dashboardHandler.GetFilterOptions)
			dashboard.GET("/summary", dashboardHandler.GetSummary)
			dashboard.GET("/charts", dashboardHandler.GetCharts)
		}

		session := v1.Group("/session")
		{
			session.PUT("/filters", dashboardHandler.UpdateSessionFilters)
			session.GET("/filters", dashboardHandler.GetSessionFilters)
		}

		ai := v1.Group("/ai")
		{
			ai.POST("/chat", aiHandler.Chat)
			ai.POST("/chart", aiHandler.CreateChart)
			ai.GET("/history", aiHandler.GetHistory)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/stats", monitoringHandler.GetStats)
		}
	}

	log.Printf("Starting Superstore Dashboard API server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
