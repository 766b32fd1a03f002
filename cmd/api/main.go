package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/config"
	"github.com/BudHamud/safe/internal/database"
	_ "github.com/BudHamud/safe/internal/docs" // Import swagger docs
	"github.com/BudHamud/safe/internal/handlers"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/middleware"
	"github.com/BudHamud/safe/internal/rates"
	"github.com/BudHamud/safe/internal/services"
	"github.com/BudHamud/safe/internal/validator"
)

// @title           Safe API
// @version         1.0
// @description     Safe is a personal expense tracker: movements in several currencies, a monthly goal, recurring payments and spreadsheet import.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	cat := catalog.Default()
	if appConfig.CatalogFile != "" {
		if cat, err = catalog.Load(appConfig.CatalogFile); err != nil {
			return fmt.Errorf("failed to load category catalog: %w", err)
		}
	}

	rateSource := rates.FromConfig(context.Background(), appConfig)
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, appConfig.DefaultMonthlyGoal)
	transactionService := services.NewTransactionService(db, rateSource, cat)
	categoryService := services.NewCategoryService(db, cat)
	insightsService := services.NewInsightsService(db, appConfig.SavingsTarget)
	importService := services.NewImportService(db, rateSource, cat)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(userService, categoryService, insightsService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, insightsService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	insightsHandler := handlers.NewInsightsHandler(insightsService)
	importHandler := handlers.NewImportHandler(importService, auditService)
	pipelineHandler := handlers.NewPipelineHandler(transactionService)

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Scheduled jobs
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/backfill", pipelineHandler.Backfill)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.GET("/goal", profileHandler.GetGoal)
	profile.PUT("/goal", profileHandler.UpdateGoal)
	profile.PUT("/preferences", profileHandler.UpdatePreferences)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/summary", transactionHandler.GetMonthSummary)
	transactions.POST("/import", importHandler.Import)
	transactions.GET("/export", importHandler.Export)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/cancel-recurrence", transactionHandler.CancelRecurrence)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.PUT("/rename", categoryHandler.RenameCategory)
	categories.PUT("/merge", categoryHandler.MergeCategory)
	categories.DELETE("", categoryHandler.DeleteCategory)

	protected.GET("/dashboard", insightsHandler.GetDashboard)
	protected.GET("/stats", insightsHandler.GetStats)
	protected.GET("/checklist", insightsHandler.GetChecklist)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Safe backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
