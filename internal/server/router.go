package server

import (
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"employee-poll-backend/internal/config"
	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/handlers"
	"employee-poll-backend/internal/middleware"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/realtime"
	"employee-poll-backend/internal/services"
	"employee-poll-backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Deps struct {
	Store     database.Store
	Queue     queue.Queue
	Hub       *realtime.Hub
	Temp      *storage.TempDir
	Users     *services.UserService
	Votes     *services.VoteService
	Questions *services.QuestionService
}

func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.NewHealthHandler(d.Store).Health)

	// Processed nominee images
	router.Static(storage.NomineeURLPrefix, filepath.Join(cfg.PublicDir, "uploads", "nominees"))

	// Realtime channel
	router.GET("/ws", handlers.NewRealtimeHandler(d.Hub).Serve)

	voteHandler := handlers.NewVoteHandler(d.Votes)
	questionsHandler := handlers.NewQuestionsHandler(d.Questions, d.Temp, cfg.MaxUploadBytes(), cfg.AllowedImageTypes)
	queueHandler := handlers.NewQueueHandler(d.Queue)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg), middleware.LoadUser(d.Users))

	// Voting
	vote := api.Group("/vote")
	vote.POST("/submit", voteHandler.Submit)
	vote.GET("/questions", voteHandler.Questions)
	vote.GET("/history", voteHandler.History)
	vote.POST("/finalize", voteHandler.Finalize)

	// Administration
	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/questions", questionsHandler.List)
	admin.POST("/questions", questionsHandler.Create)
	admin.GET("/questions/:id", questionsHandler.Get)
	admin.PUT("/questions/:id", questionsHandler.Update)
	admin.DELETE("/questions/:id", questionsHandler.Delete)
	admin.PATCH("/questions/:id/active", questionsHandler.SetActive)
	admin.GET("/queue-status", queueHandler.Status)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}
