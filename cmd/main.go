package main

import (
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"playlater/cache"
	"playlater/db"
	"playlater/handlers"
	"playlater/middleware"
	"playlater/monitoring"
	"playlater/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	utils.InitLogger()
	monitoring.InitMetrics()

	if err := cache.InitRedis(); err != nil {
		utils.Log.Warnf("Redis unavailable, stats caching and rate limiting disabled: %v", err)
	}

	db.InitDB()
	handlers.InitEngines()

	// Set to release mode in production
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(monitoring.PrometheusMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}))

	// Public routes
	r.POST("/login", handlers.Login)
	r.POST("/register", handlers.Register)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/games", handlers.GetGames)
	r.GET("/games/:id", handlers.GetGameByID)

	protected := r.Group("/")
	protected.Use(handlers.AuthMiddleware())
	protected.Use(middleware.RateLimit(300, time.Minute))
	{
		protected.POST("/games", handlers.CreateGame)

		protected.GET("/collection", handlers.ListCollection)
		protected.POST("/collection", handlers.CreateCollectionItem)
		protected.GET("/collection/stats", handlers.GetCollectionStats)
		protected.POST("/collection/bulk", handlers.BulkCollectionOperations)
		protected.GET("/collection/:id", handlers.GetCollectionItem)
		protected.PATCH("/collection/:id", handlers.UpdateCollectionItem)
		protected.DELETE("/collection/:id", handlers.DeleteCollectionItem)

		protected.GET("/playthroughs", handlers.ListPlaythroughs)
		protected.POST("/playthroughs", handlers.CreatePlaythrough)
		protected.GET("/playthroughs/stats", handlers.GetPlaythroughStats)
		protected.GET("/playthroughs/backlog", handlers.GetBacklog)
		protected.GET("/playthroughs/playing", handlers.GetCurrentlyPlaying)
		protected.GET("/playthroughs/completed", handlers.GetCompleted)
		protected.POST("/playthroughs/bulk", handlers.BulkPlaythroughOperations)
		protected.GET("/playthroughs/:id", handlers.GetPlaythroughByID)
		protected.PATCH("/playthroughs/:id", handlers.UpdatePlaythrough)
		protected.POST("/playthroughs/:id/complete", handlers.CompletePlaythrough)
		protected.DELETE("/playthroughs/:id", handlers.DeletePlaythrough)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Check if HTTPS should be enabled
	useHTTPS := os.Getenv("USE_HTTPS") == "true"
	certFile := os.Getenv("TLS_CERT_FILE")
	keyFile := os.Getenv("TLS_KEY_FILE")

	if useHTTPS && certFile != "" && keyFile != "" {
		utils.Log.Infof("Starting server with HTTPS on port %s", port)

		tlsConfig := &tls.Config{
			MinVersion:       tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{tls.CurveP521, tls.CurveP384, tls.CurveP256},
		}

		server := &http.Server{
			Addr:      ":" + port,
			Handler:   r,
			TLSConfig: tlsConfig,
		}

		if err := server.ListenAndServeTLS(certFile, keyFile); err != nil {
			utils.Log.Fatalf("Failed to start HTTPS server: %v", err)
		}
	} else {
		utils.Log.Infof("Starting server with HTTP on port %s", port)
		utils.Log.Warn("Running without HTTPS. Set USE_HTTPS=true for production")

		if err := r.Run(":" + port); err != nil {
			utils.Log.Fatalf("Failed to start server: %v", err)
		}
	}
}
