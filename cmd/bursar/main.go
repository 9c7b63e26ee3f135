package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitirukayah12-del/sora2-demo/internal/handlers"
	"github.com/sitirukayah12-del/sora2-demo/pkg/accounts"
	"github.com/sitirukayah12-del/sora2-demo/pkg/appconfig"
	"github.com/sitirukayah12-del/sora2-demo/pkg/auth"
	"github.com/sitirukayah12-del/sora2-demo/pkg/config"
	"github.com/sitirukayah12-del/sora2-demo/pkg/database"
	"github.com/sitirukayah12-del/sora2-demo/pkg/gateway"
	"github.com/sitirukayah12-del/sora2-demo/pkg/ledger"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/middleware"
	"github.com/sitirukayah12-del/sora2-demo/pkg/monitoring"
	"github.com/sitirukayah12-del/sora2-demo/pkg/pricing"
	"github.com/sitirukayah12-del/sora2-demo/pkg/server"
)

const serviceVersion = "1.0.0"

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("bursar")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Bursar (credits and generation API)")

	// Required configuration: no insecure defaults, fail fast when absent.
	dbURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := config.RequireEnv("JWT_SECRET")
	adminSecret := config.RequireEnv("ADMIN_SECRET")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.EnsureSchema(startupCtx, db, logger); err != nil {
		logger.WithError(err).Fatal("Schema setup failed")
	}

	// Domain services
	book := ledger.New(db, logger)
	priceStore := pricing.NewStore(db)
	if err := priceStore.Seed(startupCtx); err != nil {
		logger.WithError(err).Fatal("Price table seeding failed")
	}

	tokenTTL := time.Duration(config.GetEnvInt("TOKEN_TTL_MINUTES", 0)) * time.Minute
	accountSvc := accounts.NewService(book, []byte(jwtSecret), tokenTTL, logger)
	meter := gateway.New(book, priceStore, logger)
	runtimeCfg := appconfig.Load()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("bursar", serviceVersion)
	metricsCollector := monitoring.NewMetricsCollector("bursar", serviceVersion, config.GetEnv("GIT_COMMIT", "unknown"))

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
		"JWT_SECRET":   jwtSecret,
		"ADMIN_SECRET": adminSecret,
	}))

	// Custom bursar metrics
	metrics := &handlers.BursarMetrics{
		AuthOperations: metricsCollector.NewCounter("auth_operations_total", "Authentication operations", []string{"operation", "status"}),
		AuthDuration:   metricsCollector.NewHistogram("auth_duration_seconds", "Authentication operation duration", []string{"operation"}, nil),
		Charges:        metricsCollector.NewCounter("charges_total", "Metered operation charges", []string{"operation", "status"}),
		Generations:    metricsCollector.NewCounter("generations_total", "Generation calls", []string{"operation", "status"}),
	}
	metrics.DBQueries, metrics.DBDuration, metrics.DBConnections = metricsCollector.CreateDatabaseMetrics()

	// Sample the connection pool for the gauge.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.DBConnections.WithLabelValues("postgres").Set(float64(db.Stats().OpenConnections))
		}
	}()

	// Initialize handlers
	handlers.Init(logger, metrics, accountSvc, book, meter, priceStore, runtimeCfg)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "bursar", healthChecker, metricsCollector)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/auth/register", handlers.Register)
		api.POST("/auth/token", handlers.Token)

		// Authentication required endpoints
		protected := api.Group("")
		protected.Use(auth.BearerAuthMiddleware([]byte(jwtSecret)))
		{
			protected.GET("/auth/me", handlers.GetMe)
			protected.POST("/wallet/recharge", handlers.Recharge)
			protected.GET("/wallet/transactions", handlers.GetTransactions)

			// Metered generation endpoints get a bounded request window.
			generate := protected.Group("/generate")
			generate.Use(middleware.TimeoutMiddleware(60 * time.Second))
			{
				generate.POST("/video", handlers.GenerateVideo)
				generate.POST("/image", handlers.GenerateImage)
				generate.POST("/music", handlers.GenerateMusic)
				generate.POST("/avatar", handlers.GenerateAvatar)
			}
		}

		// Admin surface behind the shared secret
		admin := api.Group("/admin")
		admin.Use(auth.AdminAuthMiddleware(adminSecret))
		{
			admin.POST("/login", handlers.AdminLogin)
			admin.GET("/config", handlers.GetConfig)
			admin.PUT("/config", handlers.UpdateConfig)
			admin.GET("/prices", handlers.GetPrices)
			admin.PUT("/prices/:operation", handlers.UpdatePrice)
			admin.GET("/accounts", handlers.ListAccounts)
			admin.PUT("/accounts/:username/balance", handlers.OverrideBalance)
		}
	}

	// Static frontend, when bundled alongside the binary.
	if frontendDir := config.GetEnv("FRONTEND_DIR", "frontend"); dirExists(frontendDir) {
		router.Static("/static", frontendDir)
		index := filepath.Join(frontendDir, "index.html")
		router.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	} else {
		router.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Bursar API is running. Frontend not found."})
		})
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("bursar", "8000")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
