package handlers

import (
	"net/http"

	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/queue"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	queue queue.Queue
}

func NewQueueHandler(q queue.Queue) *QueueHandler {
	return &QueueHandler{queue: q}
}

// Status godoc
// @Summary     Image queue status
// @Description Number of waiting, active, completed and failed image jobs.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.QueueStatusResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /admin/queue-status [get]
func (h *QueueHandler) Status(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.QueueStatusResponse{
		Waiting:   stats.Waiting,
		Active:    stats.Active,
		Completed: stats.Completed,
		Failed:    stats.Failed,
	})
}
