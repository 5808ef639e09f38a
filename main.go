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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"eldercare-server/config"
	"eldercare-server/database"
	"eldercare-server/jobs"
	"eldercare-server/middleware"
	"eldercare-server/routes"
	"eldercare-server/services"
	ws "eldercare-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Set Gin mode
	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	if err := database.Initialize(cfg.Database); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	db := database.GetDB()

	// Live notifications for connected clients
	hub := ws.NewHub()
	go hub.Run()

	publishers := services.MultiPublisher{hub}
	var kafkaPublisher *services.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, kafkaPublisher)
		log.Printf("📡 Publishing lifecycle events to Kafka topic %s", cfg.Kafka.Topic)
	}

	credentials := services.NewCredentialService(cfg.JWT.Secret, cfg.JWT.TokenTTL())
	tasks := services.NewTaskService(db, publishers)
	resets := services.NewPasswordResetService(db, credentials, services.NewMailer(cfg.SMTP), cfg.Reset.CodeTTL())

	var store services.MediaStore
	if cfg.Cloudinary.Enabled() {
		cld, err := services.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			log.Printf("⚠️ Cloudinary unavailable, photo uploads disabled: %v", err)
		} else {
			store = cld
		}
	} else {
		log.Println("⚠️ Cloudinary not configured, photo uploads disabled")
	}

	rateLimiter := middleware.NewRateLimiter()

	router, err := routes.NewRouter(cfg, routes.Dependencies{
		Users:       services.NewUserService(db, credentials),
		Needs:       services.NewNeedService(db, publishers),
		Tasks:       tasks,
		Feedback:    services.NewFeedbackService(db, publishers),
		CareRecords: services.NewCareRecordService(db),
		Resets:      resets,
		Photos:      services.NewPhotoService(tasks, store),
		Hub:         hub,
		RateLimiter: rateLimiter,
	})
	if err != nil {
		log.Fatal("Failed to build router:", err)
	}

	// Start background jobs
	resetCleanup := jobs.NewResetCodeCleanupJob(resets)
	resetCleanup.Start()
	limiterCleanup := jobs.NewRateLimiterCleanupJob(rateLimiter)
	limiterCleanup.Start()

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server shutdown failed: %v", err)
	}

	resetCleanup.Stop()
	limiterCleanup.Stop()
	hub.Shutdown()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Printf("❌ Kafka writer close failed: %v", err)
		}
	}
	log.Println("✅ Server stopped")
}
