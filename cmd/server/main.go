// @title           Employee Poll Backend API
// @version         1.0.0
// @description     Backend API for employee award polls. Employees vote once per question while it is active; administrators manage questions and nominees whose images are processed in the background. Live vote counts and image updates are pushed over a websocket at /ws.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"employee-poll-backend/docs"
	"employee-poll-backend/internal/config"
	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/imageproc"
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/realtime"
	"employee-poll-backend/internal/server"
	"employee-poll-backend/internal/services"
	"employee-poll-backend/internal/storage"
	"employee-poll-backend/internal/supabase"
	"employee-poll-backend/internal/worker"

	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Bootstrap(cfg.LogLevel)
	log := logging.Log

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	jobs := openQueue(cfg)
	if err := jobs.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize job queue: %v", err)
	}

	images, err := openImageStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}
	temp, err := storage.NewTempDir(cfg.TempDir)
	if err != nil {
		log.Fatalf("Failed to initialize temp dir: %v", err)
	}

	hub := realtime.NewHub(cfg.CORSOrigins)

	users, err := services.NewUserService(store, cfg.AdminEmailPattern)
	if err != nil {
		log.Fatalf("Failed to initialize user service: %v", err)
	}
	votes := services.NewVoteService(store, hub)
	questions := services.NewQuestionService(store, jobs, temp, images, cfg.ImageJobPriority)
	imageService := services.NewImageService(store, images, temp, hub,
		imageproc.Options{Size: cfg.ImageSize, Quality: cfg.ImageQuality}, cfg.ImageJobTimeout)

	pool := worker.NewPool(jobs, imageService, worker.Options{
		Concurrency:   cfg.WorkerConcurrency,
		PruneInterval: cfg.QueuePruneInterval,
	})
	pool.Start(ctx)

	router := server.NewRouter(cfg, server.Deps{
		Store:     store,
		Queue:     jobs,
		Hub:       hub,
		Temp:      temp,
		Users:     users,
		Votes:     votes,
		Questions: questions,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Worker pool did not drain in time")
	}
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Job queue shutdown failed")
	}
	hub.Close()
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("Store close failed")
	}
	log.Info("Shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	if cfg.StoreDriver == "memory" {
		logging.Log.Warn("Using in-memory store, data is lost on restart")
		return database.NewMemoryStore(), nil
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}
	logging.Log.Info("Migrations completed successfully")

	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	store, err := database.NewPostgresStore(cfg.DatabaseURL, database.PostgresOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogLevel:     level,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openQueue(cfg *config.Config) queue.Queue {
	policy := queue.Policy{
		Attempts:        cfg.QueueAttempts,
		Backoff:         cfg.QueueBackoff,
		KeepCompleted:   cfg.QueueKeepCompleted,
		KeepFailed:      cfg.QueueKeepFailed,
		CompletedMaxAge: cfg.QueueCompletedMaxAge,
		FailedMaxAge:    cfg.QueueFailedMaxAge,
	}
	if cfg.QueueDriver == "memory" {
		logging.Log.Warn("Using in-memory job queue, pending image jobs are lost on restart")
		return queue.NewMemoryQueue(policy)
	}
	return queue.NewRedisQueue(queue.RedisOptions{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		Prefix:       cfg.QueuePrefix,
		PollInterval: cfg.QueuePollInterval,
		Policy:       policy,
	})
}

func openImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStorage == "supabase" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		return supabase.NewStorageClient(client, cfg.SupabaseStorageBucket), nil
	}
	local, err := storage.NewLocalStore(cfg.PublicDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}
