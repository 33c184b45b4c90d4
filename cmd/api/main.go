package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"realty-marketplace/internal/auth"
	"realty-marketplace/internal/booking"
	"realty-marketplace/internal/cache"
	"realty-marketplace/internal/config"
	"realty-marketplace/internal/database"
	"realty-marketplace/internal/handlers"
	"realty-marketplace/internal/ratelimit"
	"realty-marketplace/internal/repository"
	"realty-marketplace/internal/scheduler"
	"realty-marketplace/internal/search"
)

var (
	gormDB       *database.GormDB
	pgDB         *database.DB
	appConfig    *config.Config
	indexClient  *search.IndexClient
	cacheClient  *cache.Client
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
	tokenService *auth.TokenService
	userRepo     repository.UserRepository
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/app.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "postgres")
	}

	var propertyRepo repository.PropertyRepository
	var tourRepo repository.TourRepository

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "realty_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "realty_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "realty_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		propertyRepo = gormDB.Properties()
		tourRepo = gormDB.Tours()
		userRepo = gormDB.Users()
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		pgDB, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "realty_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "realty_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "realty_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pgDB.Close()

		if err := pgDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		propertyRepo = pgDB.Properties()
		tourRepo = pgDB.Tours()
		userRepo = pgDB.Users()
	}

	// Initialize Meilisearch when configured
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "")
	}
	if meilisearchHost != "" {
		meilisearchKey := appConfig.Search.Meilisearch.APIKey
		if meilisearchKey == "" {
			meilisearchKey = getEnv("MEILISEARCH_KEY", "")
		}
		indexClient = search.NewIndexClient(meilisearchHost, meilisearchKey)
		if err := indexClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	} else {
		log.Println("Meilisearch not configured; full-text search disabled")
	}

	// Initialize Redis cache when enabled
	if appConfig.Cache.Enabled {
		addr := getEnvOrConfig(appConfig.Cache.Addr, "REDIS_ADDR", "localhost:6379")
		cacheClient = cache.NewClient(addr, getEnv("REDIS_PASSWORD", appConfig.Cache.Password),
			appConfig.Cache.DB, appConfig.Cache.CacheTTL())

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			log.Printf("Warning: Redis unreachable at %s: %v. Search responses will not be cached until it recovers.", addr, err)
		} else {
			log.Printf("Search cache enabled (redis %s, ttl %s)", addr, appConfig.Cache.CacheTTL())
		}
		cancel()
	}

	// Token service for the identity middleware
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Println("Warning: JWT_SECRET not set, using insecure development secret")
		jwtSecret = "dev-secret-change-me"
	}
	tokenService = auth.NewTokenService(jwtSecret, appConfig.Auth.TokenTTL())

	// Core services
	bookingService := booking.NewService(propertyRepo, tourRepo, userRepo)
	searchService := search.NewService(propertyRepo)

	// Rate limiter for the public mutating routes
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Scheduler for tour maintenance and the nightly reindex
	appScheduler = scheduler.NewScheduler(tourRepo, propertyRepo, indexClient, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	propertyHandler := handlers.NewPropertyHandler(propertyRepo, searchService, indexClient, cacheClient)
	tourHandler := handlers.NewTourHandler(bookingService)

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)

	// Development token endpoint, off by default. Enabling it lets anyone
	// who knows an email mint a token for that account.
	if appConfig.Auth.DevTokenEndpoint {
		log.Println("Warning: development token endpoint enabled at /api/auth/token")
	}
	handlers.RegisterAuthRoutes(r, handlers.NewAuthHandler(userRepo, tokenService), appConfig.Auth.DevTokenEndpoint)

	r.GET("/api/properties", propertyHandler.SearchProperties)
	r.GET("/api/properties/:id", propertyHandler.GetProperty)
	r.GET("/api/properties/:id/availability", tourHandler.CheckAvailability)
	r.GET("/api/search", propertyHandler.FreeTextSearch)

	r.GET("/api/ratelimit/stats", getRateLimitStats)

	// Authenticated routes
	authorized := r.Group("/api", tokenService.Middleware())
	{
		authorized.POST("/properties", rateLimitMiddleware(), propertyHandler.CreateProperty)
		authorized.PUT("/properties/:id", propertyHandler.UpdateProperty)
		authorized.DELETE("/properties/:id", propertyHandler.DeleteProperty)

		authorized.POST("/tours", rateLimitMiddleware(), tourHandler.CreateTour)
		authorized.PUT("/tours/:id/status", tourHandler.UpdateTourStatus)
		authorized.POST("/tours/:id/cancel", tourHandler.CancelTour)
	}

	// Admin API routes (MySQL/GORM only, like the stats queries they serve)
	if gormDB != nil {
		adminHandler := handlers.NewAdminHandler(gormDB.DB())

		admin := r.Group("/api/admin", tokenService.Middleware(), auth.RequireAdmin())
		{
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/activity", adminHandler.GetRecentActivity)
			admin.GET("/city-stats", adminHandler.GetCityStats)
			admin.GET("/price-distribution", adminHandler.GetPriceDistribution)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := getEnvOrConfig(appConfig.Server.Port, "PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.AllowRequest(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats(c.ClientIP()))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig prefers the config value, then the environment variable,
// then the default.
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
