package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/config"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/handlers"
	"github.com/visagate/visa-processing-backend/internal/middleware"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
	"github.com/visagate/visa-processing-backend/pkg/mailer"
	"github.com/visagate/visa-processing-backend/pkg/token"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting VisaGate Processing Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	adminRepository := database.NewAdminRepository(db)
	customerRepository := database.NewCustomerRepository(db)
	applicationRepository := database.NewApplicationRepository(db)
	travelerRepository := database.NewTravelerRepository(db)
	resubmissionRepository := database.NewResubmissionRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	tokenService := token.NewService(cfg.Session.Secret, cfg.Session.Expiry)
	auditService := services.NewAuditService(db)
	adminAuthService := services.NewAdminAuthService(adminRepository, tokenService, cfg.Security.BcryptCost)
	customerAuthService := services.NewCustomerAuthService(customerRepository, tokenService, cfg.Security.BcryptCost)
	applicationService := services.NewApplicationService(applicationRepository, travelerRepository, resubmissionRepository)

	// Initialize mail gateway
	var mailGateway mailer.Mailer
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing mail gateway in production mode")
		mailGateway = mailer.NewHTTPGateway(mailer.Config{
			APIURL:      cfg.Mail.APIURL,
			APIKey:      cfg.Mail.APIKey,
			FromAddress: cfg.Mail.FromAddress,
		})
	} else {
		logger.Info("Mail gateway in development mode (emails are logged, not sent)")
		mailGateway = mailer.NewDevGateway()
	}

	logger.Info("Services initialized")

	// Initialize handlers
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, auditService, mailGateway, cfg)
	customerAuthHandler := handlers.NewCustomerAuthHandler(customerAuthService, auditService, mailGateway, cfg)
	applicationHandler := handlers.NewApplicationHandler(applicationService, auditService)
	travelerHandler := handlers.NewTravelerHandler(applicationService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	requireAdmin := middleware.RequireAdmin(tokenService, adminRepository)
	requireCustomer := middleware.RequireCustomer(tokenService, customerRepository)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Customer authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", customerAuthHandler.Register)
			auth.POST("/login", customerAuthHandler.Login)
			auth.POST("/logout", customerAuthHandler.Logout)

			authProtected := auth.Group("")
			authProtected.Use(requireCustomer)
			{
				authProtected.GET("/me", customerAuthHandler.Me)
				authProtected.POST("/change-password", customerAuthHandler.ChangePassword)
				authProtected.POST("/change-email", customerAuthHandler.ChangeEmail)
			}
		}

		// Customer application routes (protected)
		customerApps := v1.Group("/applications")
		customerApps.Use(requireCustomer)
		{
			customerApps.GET("", applicationHandler.ListMine)
			customerApps.GET("/:id", applicationHandler.GetMine)
			customerApps.POST("/:id/submit", applicationHandler.SubmitMine)
		}

		// Admin routes
		admin := v1.Group("/admin")
		{
			// Admin authentication (public)
			adminAuth := admin.Group("/auth")
			{
				adminAuth.POST("/register", adminAuthHandler.Register)
				adminAuth.POST("/login", adminAuthHandler.Login)
				adminAuth.POST("/logout", adminAuthHandler.Logout)

				adminAuthProtected := adminAuth.Group("")
				adminAuthProtected.Use(requireAdmin)
				{
					adminAuthProtected.GET("/me", adminAuthHandler.Me)
					adminAuthProtected.POST("/change-password", adminAuthHandler.ChangePassword)
				}
			}

			// Subadmin management is superadmin-only; permission flags never
			// grant access here.
			subadmins := admin.Group("/subadmins")
			subadmins.Use(requireAdmin, middleware.RequireSuperadmin())
			{
				subadmins.POST("", adminAuthHandler.CreateSubadmin)
				subadmins.GET("", adminAuthHandler.ListAdmins)
				subadmins.PUT("/:id/permissions", adminAuthHandler.UpdateSubadminPermissions)
				subadmins.PUT("/:id/password", adminAuthHandler.ResetSubadminPassword)
				subadmins.DELETE("/:id", adminAuthHandler.DeleteSubadmin)
			}

			// Application management (permission gated)
			applications := admin.Group("/applications")
			applications.Use(requireAdmin)
			{
				applications.POST("", middleware.RequirePermissions(models.PermApplications), applicationHandler.Create)
				applications.GET("/:id", middleware.RequirePermissions(models.PermApplications), applicationHandler.Get)
				applications.POST("/:id/submit", middleware.RequirePermissions(models.PermApplications), applicationHandler.Submit)
				applications.POST("/:id/process", middleware.RequirePermissions(models.PermApplications), applicationHandler.StartProcessing)
				applications.POST("/:id/approve", middleware.RequirePermissions(models.PermApplications), applicationHandler.Approve)
				applications.POST("/:id/reject", middleware.RequirePermissions(models.PermApplications), applicationHandler.Reject)
				applications.PUT("/:id/sales-status", middleware.RequirePermissions(models.PermFinances), applicationHandler.UpdateSalesStatus)
				applications.GET("/:id/completeness", middleware.RequirePermissions(models.PermApplications), applicationHandler.Validate)
				applications.POST("/:id/resubmissions", middleware.RequirePermissions(models.PermApplications), applicationHandler.RequestResubmission)
				applications.GET("/:id/resubmissions", middleware.RequirePermissions(models.PermApplications), applicationHandler.ListResubmissions)

				applications.POST("/:id/travelers", middleware.RequirePermissions(models.PermApplications), travelerHandler.Add)
				applications.POST("/:id/travelers/bulk", middleware.RequirePermissions(models.PermApplications), travelerHandler.BulkAdd)
				applications.GET("/:id/travelers", middleware.RequirePermissions(models.PermApplications), travelerHandler.List)
			}

			travelers := admin.Group("/travelers")
			travelers.Use(requireAdmin, middleware.RequirePermissions(models.PermApplications))
			{
				travelers.PATCH("/:travelerId", travelerHandler.Update)
				travelers.PUT("/:travelerId/passport", travelerHandler.UpdatePassport)
				travelers.DELETE("/:travelerId", travelerHandler.Delete)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if principal, exists := middleware.GetPrincipal(c); exists {
			fields["principal_id"] = principal.ID
			fields["principal_kind"] = principal.Kind
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
