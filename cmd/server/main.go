package main

import (
	"context"
	"log"
	"os"
	"time"

	"docflow/internal/api/handler"
	"docflow/internal/core/postgres/repository"
	"docflow/internal/domain"
	"docflow/internal/engine"
	infraredis "docflow/internal/infrastructure/redis"
	"docflow/internal/notifier"
	"docflow/internal/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// 1. Set up database connection
	dsn := envOr("DOCFLOW_DSN",
		"host=localhost user=postgres password=yourpassword dbname=docflow port=5432 sslmode=disable")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	err = db.AutoMigrate(
		&domain.Workflow{},
		&domain.Node{},
		&domain.Connection{},
		&domain.Document{},
		&domain.DocumentStateHistory{},
		&domain.ApprovalTask{},
		&domain.User{},
		&domain.Role{},
	)
	if err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	// 2. Initialize repositories
	graphRepo := repository.NewGraphRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	directory := repository.NewDirectoryRepository(db)

	// 3. Redis: notification queue + event bus
	redisClient := infraredis.NewRedisClient(envOr("DOCFLOW_REDIS_ADDR", "localhost:6379"))
	queue := infraredis.NewNotificationQueue(redisClient)
	bus := infraredis.NewRedisEventBus(redisClient)

	// 4. Initialize the workflow engine
	eng := engine.New(graphRepo, taskRepo, documentRepo, directory, queue, bus)

	// 5. Background loops: notifier and due-date sweeper
	ctx := context.Background()
	go notifier.NewNotifier(queue, taskRepo, bus).Start(ctx, 4)

	sweepInterval, err := time.ParseDuration(envOr("DOCFLOW_SWEEP_INTERVAL", "1m"))
	if err != nil {
		log.Fatal("Invalid DOCFLOW_SWEEP_INTERVAL:", err)
	}
	go sweeper.NewSweeper(taskRepo, sweepInterval).Start(ctx)

	// 6. Set up routes
	engineHandler := handler.NewEngineHandler(eng, graphRepo)

	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/approval-tasks", engineHandler.CreateApprovalTask)
		api.POST("/approval-tasks/:id/actions", engineHandler.ExecuteAction)
		api.GET("/approvals/pending", engineHandler.ListPendingApprovals)
		api.GET("/nodes/:id/actions", engineHandler.NodeActions)
		api.DELETE("/nodes/:id", engineHandler.DeleteNode)
		api.GET("/documents/:id/permissions", engineHandler.CheckPermission)
		api.GET("/documents/:id/history", engineHandler.DocumentHistory)
		api.POST("/conditions/evaluate", engineHandler.EvaluateConditions)
	}

	// 7. Start server
	addr := envOr("DOCFLOW_LISTEN_ADDR", ":8080")
	log.Println("Server starting on", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
