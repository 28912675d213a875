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

	"todo-app/backend/internal/cache"
	"todo-app/backend/internal/config"
	"todo-app/backend/internal/database"
	"todo-app/backend/internal/handlers"
	"todo-app/backend/internal/middleware"
	"todo-app/backend/internal/monitoring"
	"todo-app/backend/internal/services"
	"todo-app/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.GetRedisAddr())
	if err := redisCache.Ping(); err != nil {
		log.Printf("Redis unavailable at startup: %v", err)
	}

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisCache.Ping()
	})

	jobQueue := worker.NewJobQueue(redisCache.Client())
	scheduler := worker.NewReminderScheduler(jobQueue, cfg.Worker.ReminderLead)

	notificationService := services.NewCachedNotificationService(
		services.NewNotificationService(), redisCache)
	authService := services.NewAuthService(cfg.Auth)
	userService := services.NewUserService(cfg.Auth.BCryptCost)
	todoService := services.NewTodoService(notificationService, scheduler)
	fileService := services.NewFileService(cfg.Upload)
	statsService := services.NewStatsService(redisCache)

	jobWorker := worker.NewWorker(worker.Config{
		RedisClient: redisCache.Client(),
		Queues:      cfg.Worker.Queues,
	})
	jobWorker.RegisterHandler(worker.JobTypeDueReminder,
		worker.NewDueReminderHandler(db, notificationService))
	jobWorker.RegisterHandler(worker.JobTypeUploadCleanup,
		worker.NewUploadCleanupHandler(db, cfg.Upload.Dir))
	jobWorker.Start(cfg.Worker.Concurrency)

	stopCleanup := startCleanupTicker(jobQueue, cfg.Worker.CleanupInterval)

	router := setupRouter(cfg, db, authService, userService, todoService,
		fileService, notificationService, statsService)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.GetServerAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	close(stopCleanup)
	jobWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	redisCache.Close()
	log.Println("Server stopped")
}

func startCleanupTicker(queue *worker.JobQueue, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	if interval <= 0 {
		return stop
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := queue.Enqueue(worker.QueueCleanup, worker.JobTypeUploadCleanup, nil); err != nil {
					log.Printf("Failed to enqueue upload cleanup: %v", err)
				}
			}
		}
	}()

	return stop
}

func setupRouter(
	cfg *config.Config,
	db *gorm.DB,
	authService services.AuthService,
	userService services.UserService,
	todoService services.TodoService,
	fileService services.FileService,
	notificationService services.NotificationService,
	statsService services.StatsService,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.Default())

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	authHandler := handlers.NewAuthHandler(db, authService)
	userHandler := handlers.NewUserHandler(db, userService)
	todoHandler := handlers.NewTodoHandler(db, todoService)
	fileHandler := handlers.NewFileHandler(db, fileService, todoService)
	notificationHandler := handlers.NewNotificationHandler(db, notificationService)
	dashboardHandler := handlers.NewDashboardHandler(db, statsService)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimit))

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(db, authService))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/todos", todoHandler.ListTodos)
		authed.POST("/todos", todoHandler.CreateTodo)
		authed.GET("/todos/:id", todoHandler.GetTodoByID)
		authed.PUT("/todos/:id", todoHandler.UpdateTodo)
		authed.DELETE("/todos/:id", todoHandler.DeleteTodo)
		authed.PATCH("/todos/:id/status", todoHandler.UpdateStatus)
		authed.PATCH("/todos/:id/position", todoHandler.UpdatePosition)
		authed.POST("/todos/:id/files", fileHandler.UploadFiles)

		authed.GET("/files/:filename", fileHandler.ServeFile)
		authed.DELETE("/files/:filename", fileHandler.DeleteFile)

		authed.GET("/notifications", notificationHandler.ListNotifications)
		authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authed.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		authed.DELETE("/notifications/:id", notificationHandler.DeleteNotification)

		authed.GET("/users/:id", userHandler.GetUser)
		authed.PUT("/users/:id", userHandler.UpdateUser)

		authed.GET("/dashboard/stats", dashboardHandler.GetStats)

		admin := authed.Group("")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/users", userHandler.GetUsers)
			admin.POST("/users", userHandler.CreateUser)
			admin.PATCH("/users/:id/deactivate", userHandler.DeactivateUser)
			admin.DELETE("/users/:id", userHandler.DeleteUser)
		}
	}

	return router
}
