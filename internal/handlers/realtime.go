package handlers

import (
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/realtime"

	"github.com/gin-gonic/gin"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Serve godoc
// @Summary     Real-time updates
// @Description WebSocket channel. Send {"type":"joinRoom","questionId":"..."} to receive vote-update and imageProcessed events of a question.
// @Tags        realtime
// @Success     101
// @Router      /ws [get]
func (h *RealtimeHandler) Serve(c *gin.Context) {
	if err := h.hub.ServeWS(c.Writer, c.Request); err != nil {
		logging.Log.WithError(err).Debug("WebSocket upgrade failed")
	}
}
