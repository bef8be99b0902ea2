package handlers

import (
	"context"
	"net/http"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	store database.Store
}

func NewHealthHandler(store database.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health godoc
// @Summary     Health check
// @Description Returns the health status of the API and its database
// @Tags        health
// @Accept      json
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded"})
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
