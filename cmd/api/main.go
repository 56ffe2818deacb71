package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/dealership-api/internal/config"
	"github.com/yourusername/dealership-api/internal/handler"
	"github.com/yourusername/dealership-api/internal/middleware"
	pgRepo "github.com/yourusername/dealership-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/dealership-api/internal/repository/redis"
	"github.com/yourusername/dealership-api/internal/service"
	ws "github.com/yourusername/dealership-api/internal/websocket"
	"github.com/yourusername/dealership-api/pkg/auth"
	"github.com/yourusername/dealership-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	otpRepo := pgRepo.NewOtpRepo(db)
	carRepo := pgRepo.NewCarRepo(db)
	employeeRepo := pgRepo.NewEmployeeRepo(db)
	saleRepo := pgRepo.NewSaleRepo(db)
	purchaseRequestRepo := pgRepo.NewPurchaseRequestRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWT service: %v", err)
		os.Exit(1)
	}

	// Lifecycle context for background goroutines.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub for dashboard notifications.
	wsHub := ws.NewHub()
	go wsHub.Run()

	// Services
	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	var deliverySink service.DeliverySink = &service.LogDeliverySink{}
	if cfg.Email.ResendAPIKey != "" {
		resendSink, err := service.NewResendDeliverySink(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize Resend delivery: %v", err)
			os.Exit(1)
		}
		deliverySink = resendSink
		log.Println("OTP delivery: Resend email")
	} else {
		log.Println("OTP delivery: console log (no RESEND_API_KEY configured)")
	}

	otpService, err := service.NewOtpService(otpRepo, authService, deliverySink, cfg.Otp.TTL, cfg.Otp.MaxAttempts)
	if err != nil {
		log.Printf("Failed to initialize OtpService: %v", err)
		os.Exit(1)
	}

	carService := service.NewCarService(carRepo, cacheRepo, wsHub)
	customerService := service.NewCustomerService(userRepo)
	employeeService := service.NewEmployeeService(employeeRepo)
	saleService := service.NewSaleService(saleRepo, userRepo, employeeRepo, carService, wsHub)
	purchaseRequestService := service.NewPurchaseRequestService(purchaseRequestRepo, carRepo, wsHub)

	// Background sweeper for expired and used OTP records.
	otpCleanup := service.NewOtpCleanup(otpService, cfg.Otp.CleanupInterval)
	go otpCleanup.Run(ctx)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	otpHandler := handler.NewOtpHandler(otpService)
	carHandler := handler.NewCarHandler(carService, otpService)
	customerHandler := handler.NewCustomerHandler(customerService, authService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	saleHandler := handler.NewSaleHandler(saleService)
	purchaseRequestHandler := handler.NewPurchaseRequestHandler(purchaseRequestService, otpService)
	wsHandler := handler.NewWSHandler(wsHub, jwtService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Trusted proxies matter for the rate limiter's ClientIP keys.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.GET("/me", authHandler.Me)
			}
		}

		otpGroup := api.Group("/otp")
		otpGroup.Use(rateLimiter.Limit(middleware.OtpRateLimitConfig()))
		{
			otpGroup.POST("/generate", otpHandler.Generate)
			otpGroup.POST("/verify", otpHandler.Verify)
			otpGroup.GET("/validate", otpHandler.Validate)
		}

		cars := api.Group("/cars")
		{
			cars.GET("", carHandler.List)

			carWithID := cars.Group("/:id")
			carWithID.Use(middleware.ExtractUintParam("id", "car_id"))
			{
				carWithID.GET("", carHandler.Get)

				adminCarWithID := carWithID.Group("")
				adminCarWithID.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
				{
					adminCarWithID.POST("/update/request-otp", rateLimiter.Limit(middleware.OtpRateLimitConfig()), carHandler.RequestUpdateOtp)
					adminCarWithID.DELETE("", carHandler.Delete)
				}
			}

			adminCars := cars.Group("")
			adminCars.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
			{
				adminCars.POST("", carHandler.Create)
				adminCars.PUT("/update/verify-otp", carHandler.UpdateWithOtp)
			}
		}

		customers := api.Group("/customers")
		customers.Use(authMiddleware.RequireAuth(), authMiddleware.StaffOnly())
		{
			customers.GET("", customerHandler.List)

			customerWithID := customers.Group("/:id")
			customerWithID.Use(middleware.ExtractUintParam("id", "customer_id"))
			{
				customerWithID.GET("", customerHandler.Get)
				customerWithID.PUT("", customerHandler.Update)
				customerWithID.DELETE("", authMiddleware.AdminOnly(), customerHandler.Delete)
			}
		}

		employees := api.Group("/employees")
		employees.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			employees.GET("", employeeHandler.List)
			employees.POST("", employeeHandler.Create)

			employeeWithID := employees.Group("/:id")
			employeeWithID.Use(middleware.ExtractUintParam("id", "employee_id"))
			{
				employeeWithID.GET("", employeeHandler.Get)
				employeeWithID.PUT("", employeeHandler.Update)
				employeeWithID.POST("/deactivate", employeeHandler.Deactivate)
				employeeWithID.DELETE("", employeeHandler.Delete)
			}
		}

		sales := api.Group("/sales")
		sales.Use(authMiddleware.RequireAuth(), authMiddleware.StaffOnly())
		{
			sales.GET("", saleHandler.List)
			sales.POST("", saleHandler.Create)
			sales.GET("/report", saleHandler.Report)

			saleWithID := sales.Group("/:id")
			saleWithID.Use(middleware.ExtractUintParam("id", "sale_id"))
			{
				saleWithID.GET("", saleHandler.Get)
			}
		}

		purchaseRequests := api.Group("/purchase-requests")
		purchaseRequests.Use(authMiddleware.RequireAuth())
		{
			purchaseRequests.POST("/request-otp", rateLimiter.Limit(middleware.OtpRateLimitConfig()), purchaseRequestHandler.RequestOtp)
			purchaseRequests.POST("/verify-otp", purchaseRequestHandler.VerifyOtp)
			purchaseRequests.GET("/my-requests", purchaseRequestHandler.ListMine)

			staffRequests := purchaseRequests.Group("")
			staffRequests.Use(authMiddleware.StaffOnly())
			{
				staffRequests.GET("", purchaseRequestHandler.List)
			}

			requestWithID := purchaseRequests.Group("/:id")
			requestWithID.Use(middleware.ExtractUintParam("id", "request_id"))
			{
				requestWithID.GET("", purchaseRequestHandler.Get)
				requestWithID.PUT("/status", authMiddleware.StaffOnly(), purchaseRequestHandler.UpdateStatus)
			}
		}
	}

	router.GET("/ws", wsHandler.Handle)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the sweeper and the hub before the HTTP listener drains.
	cancel()
	wsHub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
